package user

import (
	"errors"
	"time"

	"github.com/jdforge/core/internal/models"
)

type RegisterDTO struct {
	Username         string `json:"username"          binding:"required,min=3,max=150,username"`
	Email            string `json:"email"             binding:"required,email,max=191"`
	Password1        string `json:"password1"         binding:"required,min=8,max=128"`
	Password2        string `json:"password2"         binding:"required"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"   binding:"max=255"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Username string `json:"username" binding:"required,min=3,max=150,username"`
	Email    string `json:"email"    binding:"required,email,max=191"`
}

type ChangePasswordDTO struct {
	OldPassword    string `json:"old_password"    binding:"required"`
	SecurityAnswer string `json:"security_answer" binding:"required,max=255"`
	NewPassword1   string `json:"new_password1"   binding:"required,min=8,max=128"`
	NewPassword2   string `json:"new_password2"   binding:"required"`
}

type userResponse struct {
	ID               string                   `json:"id"`
	Username         string                   `json:"username"`
	Email            string                   `json:"email"`
	SecurityQuestion *models.SecurityQuestion `json:"security_question,omitempty"`
	LastLoginTime    *time.Time               `json:"last_login_time"`
	LastLoginIP      string                   `json:"last_login_ip"`
	Created          time.Time                `json:"created"`
}

type loginResponse struct {
	OK      int           `json:"ok"`
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    *userResponse `json:"user"`
}

type sessionResponse struct {
	ID      string    `json:"id"`
	UA      string    `json:"ua"`
	IP      string    `json:"ip"`
	Date    time.Time `json:"date"`
	Current bool      `json:"current"`
}

const (
	msgPasswordMismatch    = "Passwords do not match!"
	msgUsernameTaken       = "Username already exists!"
	msgEmailTaken          = "Email already registered!"
	msgDomainNotAllowed    = "Email domain is not allowed."
	msgChooseQuestion      = "Please choose a security question."
	msgProvideAnswer       = "Please provide a security answer."
	msgRegistered          = "Registration successful! Please login."
	msgInvalidCredentials  = "Invalid username or password!"
	msgLoggedOut           = "You have been logged out successfully!"
	msgProfileUpdated      = "Your profile has been updated."
	msgWrongOldPassword    = "Your old password was entered incorrectly. Please enter it again."
	msgProfileMissing      = "User profile not found"
	msgWrongAnswer         = "The answer to your security question is incorrect."
	msgNewPasswordMismatch = "The two password fields didn't match."
	msgPasswordUnchanged   = "The new password must be different from the current one."
	msgPasswordChanged     = "Your password has been changed."
	msgSessionRevoked      = "The session has been signed out."
)

var (
	errUserNotFound       = errors.New("user not found")
	errInvalidCredentials = errors.New("invalid credentials")
)
