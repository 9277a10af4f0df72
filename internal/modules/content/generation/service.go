package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jdforge/core/internal/models"
	"github.com/jdforge/core/internal/modules/processing/ai"
	"github.com/jdforge/core/internal/modules/processing/markdown"
	"github.com/jdforge/core/internal/pkg/formstate"
	"github.com/jdforge/core/internal/pkg/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	completer ai.Completer
	forms     *formstate.Store
	sampling  ai.Sampling
	timeout   time.Duration
	logger    *zap.Logger
}

func NewService(db *gorm.DB, completer ai.Completer, forms *formstate.Store, opts Options, logger *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:        db,
		completer: completer,
		forms:     forms,
		sampling:  ai.SamplingFor(opts.Mode, opts.MaxTokens),
		timeout:   opts.Timeout,
		logger:    logger.Named("GenerationService"),
	}
}

var requiredFields = validation.Pipeline[*GenerateDTO]{
	{Name: "job_title", Fn: requireField("Job title", func(d *GenerateDTO) string { return d.JobTitle })},
	{Name: "tech_skills", Fn: requireField("Tech skills", func(d *GenerateDTO) string { return d.TechSkills })},
	{Name: "experience_level", Fn: requireField("Experience level", func(d *GenerateDTO) string { return d.ExperienceLevel })},
	{Name: "location", Fn: requireField("Location", func(d *GenerateDTO) string { return d.Location })},
}

func requireField(label string, get func(*GenerateDTO) string) func(context.Context, *GenerateDTO) (string, error) {
	return func(_ context.Context, d *GenerateDTO) (string, error) {
		if strings.TrimSpace(get(d)) == "" {
			return label + " is required.", nil
		}
		return "", nil
	}
}

// Generate asks the model for a job description and stores the outcome.
// Provider failures do not fail the call: the answer carries the error text
// and the record is still written.
func (s *Service) Generate(ctx context.Context, userID, sessionID string, dto *GenerateDTO) (*Result, error) {
	if err := requiredFields.Run(ctx, dto); err != nil {
		return nil, err
	}
	input := ai.JobDescriptionInput{
		JobTitle:        strings.TrimSpace(dto.JobTitle),
		TechSkills:      strings.TrimSpace(dto.TechSkills),
		ExperienceLevel: strings.TrimSpace(dto.ExperienceLevel),
		Location:        strings.TrimSpace(dto.Location),
		Notes:           strings.TrimSpace(dto.Notes),
	}

	answer, failed := s.complete(ctx, input)

	record := models.GenerationRecord{
		Question:        BuildQuestion(input),
		Answer:          answer,
		JobTitle:        input.JobTitle,
		TechSkills:      input.TechSkills,
		ExperienceLevel: input.ExperienceLevel,
		Location:        input.Location,
		Notes:           input.Notes,
		Model:           s.completer.Model(),
		Failed:          failed,
	}
	if userID != "" {
		record.UserID = &userID
	}
	// The attempt is kept even when the client has gone away.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.db.WithContext(saveCtx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("save generation record: %w", err)
	}

	if err := s.saveForm(saveCtx, sessionID, input); err != nil {
		s.logger.Warn("failed to remember generation form", zap.String("session_id", sessionID), zap.Error(err))
	}

	return &Result{
		ID:        record.ID,
		Question:  record.Question,
		Answer:    record.Answer,
		HTML:      markdown.RenderJobDescription(record.Answer),
		Model:     record.Model,
		Error:     failed,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (s *Service) complete(ctx context.Context, input ai.JobDescriptionInput) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.completer.Complete(callCtx, ai.CompletionRequest{
		System:   ai.JobDescriptionSystemPrompt,
		Prompt:   ai.BuildJobDescriptionPrompt(input),
		Sampling: s.sampling,
	})
	if err != nil {
		s.logger.Warn("completion failed", zap.String("model", s.completer.Model()), zap.Error(err))
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return fmt.Sprintf("%sthe language model did not respond within %s", errorAnswerPrefix, s.timeout), true
		case errors.Is(err, context.Canceled):
			return errorAnswerPrefix + "the request was cancelled before the language model answered", true
		}
		return errorAnswerPrefix + err.Error(), true
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyResponsePlaceholder, false
	}
	return text, false
}

func (s *Service) saveForm(ctx context.Context, sessionID string, in ai.JobDescriptionInput) error {
	if s.forms == nil || sessionID == "" {
		return nil
	}
	return s.forms.Save(ctx, sessionID, formstate.Values{
		JobTitle:        in.JobTitle,
		TechSkills:      in.TechSkills,
		ExperienceLevel: in.ExperienceLevel,
		Location:        in.Location,
		Notes:           in.Notes,
	})
}

// LastForm returns the form values the session submitted most recently, or nil.
func (s *Service) LastForm(ctx context.Context, sessionID string) (*formstate.Values, error) {
	if sessionID == "" {
		return nil, errNoSession
	}
	if s.forms == nil {
		return nil, nil
	}
	return s.forms.Load(ctx, sessionID)
}

// BuildQuestion serializes the inputs into the short summary kept with each record.
func BuildQuestion(in ai.JobDescriptionInput) string {
	parts := []string{
		"Job Title: " + in.JobTitle,
		"Tech Skills: " + in.TechSkills,
		"Experience: " + in.ExperienceLevel,
		"Location: " + in.Location,
	}
	if in.Notes != "" {
		parts = append(parts, "Notes: "+in.Notes)
	}
	return models.TruncateRunes(strings.Join(parts, " | "), models.GenerationQuestionMaxLen)
}
