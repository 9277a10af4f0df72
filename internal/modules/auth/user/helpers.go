package user

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jdforge/core/internal/models"
	"github.com/jdforge/core/internal/pkg/validation"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// RegisterValidators adds the "username" binding tag to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

func toResponse(u *models.UserModel) *userResponse {
	res := &userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		LastLoginTime: u.LastLoginTime,
		LastLoginIP:   u.LastLoginIP,
		Created:       u.CreatedAt,
	}
	if u.Profile != nil {
		if q, ok := models.LookupSecurityQuestion(u.Profile.SecurityQuestion); ok {
			res.SecurityQuestion = &q
		}
	}
	return res
}

// duplicateRejection turns a unique-index violation into the matching uniqueness rejection.
func duplicateRejection(err error) error {
	var mysqlErr *mysqlDriver.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != 1062 {
		return err
	}
	if strings.Contains(strings.ToLower(mysqlErr.Message), "email") {
		return validation.Reject("email_unique", msgEmailTaken)
	}
	return validation.Reject("username_unique", msgUsernameTaken)
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}
