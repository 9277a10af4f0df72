package generation

import (
	"errors"
	"time"
)

// GenerateDTO is the job-description form.
type GenerateDTO struct {
	JobTitle        string `json:"job_title"        binding:"required,max=100"`
	TechSkills      string `json:"tech_skills"      binding:"required,max=500"`
	ExperienceLevel string `json:"experience_level" binding:"required,max=50"`
	Location        string `json:"location"         binding:"required,max=100"`
	Notes           string `json:"notes"            binding:"max=1000"`
}

// Result is what one generation returns to the client.
type Result struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	HTML      string    `json:"html"`
	Model     string    `json:"model"`
	Error     bool      `json:"error"`
	CreatedAt time.Time `json:"created"`
}

// Options tunes sampling and the provider deadline.
type Options struct {
	Mode      string
	MaxTokens int
	Timeout   time.Duration
}

const (
	// EmptyResponsePlaceholder replaces a blank completion.
	EmptyResponsePlaceholder = "No response received from the language model."
	errorAnswerPrefix        = "Error: "
)

var errNoSession = errors.New("no active session")
