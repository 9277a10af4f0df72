package models

import "time"

// UserModel is an account that can sign in and own generation records.
type UserModel struct {
	Base
	Username      string       `json:"username"        gorm:"size:150;uniqueIndex;not null"`
	Email         string       `json:"email"           gorm:"size:191;uniqueIndex;not null"`
	Password      string       `json:"-"               gorm:"not null"`
	LastLoginTime *time.Time   `json:"last_login_time"`
	LastLoginIP   string       `json:"last_login_ip"`
	Profile       *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (UserModel) TableName() string { return "users" }

// UserProfile holds the security question used to gate password changes.
// Exactly one row exists per user; it is created together with the user.
type UserProfile struct {
	Base
	UserID           string `json:"user_id"           gorm:"type:char(36);uniqueIndex;not null"`
	SecurityQuestion string `json:"security_question" gorm:"size:32;not null"`
	SecurityAnswer   string `json:"-"                 gorm:"size:255;not null"`
}

func (UserProfile) TableName() string { return "user_profiles" }
