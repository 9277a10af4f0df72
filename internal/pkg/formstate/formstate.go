// Package formstate keeps the last generation form a session submitted, so it can be shown again.
package formstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgredis "github.com/jdforge/core/internal/pkg/redis"
)

const keyPrefix = "jd:form:"

// Values is the snapshot of one submitted generation form.
type Values struct {
	JobTitle        string    `json:"job_title"`
	TechSkills      string    `json:"tech_skills"`
	ExperienceLevel string    `json:"experience_level"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes,omitempty"`
	SavedAt         time.Time `json:"saved_at"`
}

type Store struct {
	rc  *pkgredis.Client
	ttl time.Duration
}

func NewStore(rc *pkgredis.Client, ttl time.Duration) *Store {
	return &Store{rc: rc, ttl: ttl}
}

// Save replaces whatever was stored for sessionID.
func (s *Store) Save(ctx context.Context, sessionID string, v Values) error {
	if sessionID == "" {
		return errors.New("formstate: session id is required")
	}
	if v.SavedAt.IsZero() {
		v.SavedAt = time.Now()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rc.Set(ctx, keyPrefix+sessionID, data, s.ttl)
}

// Load returns nil, nil when nothing was saved for sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (*Values, error) {
	if sessionID == "" {
		return nil, nil
	}
	raw, err := s.rc.Get(ctx, keyPrefix+sessionID)
	if err != nil || raw == "" {
		return nil, err
	}
	var v Values
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.rc.Del(ctx, keyPrefix+sessionID)
}
