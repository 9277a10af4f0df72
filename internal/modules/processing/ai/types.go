package ai

import (
	"context"

	"github.com/jdforge/core/internal/config"
)

// Completer turns a prompt into generated text. Implementations must honour ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

// CompletionRequest is one system+user exchange with its sampling settings.
type CompletionRequest struct {
	System   string
	Prompt   string
	Sampling Sampling
}

// Sampling mirrors the knobs shared by the supported chat APIs.
// Providers without penalties ignore them.
type Sampling struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int
}

// SamplingFor returns the preset for mode, capped at maxTokens.
func SamplingFor(mode string, maxTokens int) Sampling {
	if mode == config.ModeCreative {
		return Sampling{
			Temperature:      0.9,
			TopP:             1,
			FrequencyPenalty: 0.3,
			PresencePenalty:  0.3,
			MaxTokens:        maxTokens,
		}
	}
	return Sampling{Temperature: 0, TopP: 1, MaxTokens: maxTokens}
}

// JobDescriptionInput is the validated form behind one generation.
type JobDescriptionInput struct {
	JobTitle        string
	TechSkills      string
	ExperienceLevel string
	Location        string
	Notes           string
}
