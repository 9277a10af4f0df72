// Package validation runs ordered lists of named checks and reports the first rejection.
package validation

import (
	"context"
	"errors"
	"fmt"
)

// Rejection is a user-correctable failure. Check names the rule that rejected the input.
type Rejection struct {
	Check   string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Check, r.Message)
}

// Reject builds a Rejection outside of a pipeline.
func Reject(check, message string) *Rejection {
	return &Rejection{Check: check, Message: message}
}

// AsRejection unwraps err into a Rejection when it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Check inspects in and returns a non-empty message to reject it.
// A non-nil error means the check itself could not run.
type Check[T any] struct {
	Name string
	Fn   func(ctx context.Context, in T) (string, error)
}

// Pipeline runs its checks in order and stops at the first rejection or error.
type Pipeline[T any] []Check[T]

func (p Pipeline[T]) Run(ctx context.Context, in T) error {
	for _, check := range p {
		msg, err := check.Fn(ctx, in)
		if err != nil {
			return fmt.Errorf("check %s: %w", check.Name, err)
		}
		if msg != "" {
			return &Rejection{Check: check.Name, Message: msg}
		}
	}
	return nil
}

// Names lists the check names in execution order.
func (p Pipeline[T]) Names() []string {
	names := make([]string, len(p))
	for i, check := range p {
		names[i] = check.Name
	}
	return names
}
