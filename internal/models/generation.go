package models

import (
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	GenerationQuestionMaxLen = 250
	GenerationAnswerMaxLen   = 5000
)

// GenerationRecord pairs the inputs of one generation request with the text it produced.
// UserID is nil for rows written before records were tied to accounts.
type GenerationRecord struct {
	Base
	UserID          *string `json:"user_id"          gorm:"type:char(36);index"`
	Question        string  `json:"question"         gorm:"size:250;not null"`
	Answer          string  `json:"answer"           gorm:"type:text;not null"`
	JobTitle        string  `json:"job_title"        gorm:"size:100"`
	TechSkills      string  `json:"tech_skills"      gorm:"size:500"`
	ExperienceLevel string  `json:"experience_level" gorm:"size:50"`
	Location        string  `json:"location"         gorm:"size:100"`
	Notes           string  `json:"notes"            gorm:"type:text"`
	Model           string  `json:"model"            gorm:"size:100"`
	Failed          bool    `json:"failed"           gorm:"not null;default:false"`
}

func (GenerationRecord) TableName() string { return "generation_records" }

// BeforeSave clamps question and answer to their column limits.
func (r *GenerationRecord) BeforeSave(tx *gorm.DB) error {
	r.Question = TruncateRunes(r.Question, GenerationQuestionMaxLen)
	r.Answer = TruncateRunes(r.Answer, GenerationAnswerMaxLen)
	return nil
}

// TruncateRunes cuts s to at most n characters without splitting a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
