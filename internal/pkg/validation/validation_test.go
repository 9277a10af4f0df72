package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	A, B string
}

func TestPipelineStopsAtFirstRejection(t *testing.T) {
	var ran []string
	check := func(name, msg string) Check[form] {
		return Check[form]{Name: name, Fn: func(ctx context.Context, in form) (string, error) {
			ran = append(ran, name)
			return msg, nil
		}}
	}
	p := Pipeline[form]{check("first", ""), check("second", "nope"), check("third", "also nope")}

	err := p.Run(context.Background(), form{})
	r, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "second", r.Check)
	assert.Equal(t, "nope", r.Message)
	assert.Equal(t, []string{"first", "second"}, ran)
	assert.Equal(t, []string{"first", "second", "third"}, p.Names())
}

func TestPipelineWrapsCheckErrors(t *testing.T) {
	boom := errors.New("db down")
	p := Pipeline[form]{{Name: "lookup", Fn: func(context.Context, form) (string, error) { return "", boom }}}

	err := p.Run(context.Background(), form{})
	assert.ErrorIs(t, err, boom)
	_, ok := AsRejection(err)
	assert.False(t, ok)
}

func TestPipelineAccepts(t *testing.T) {
	p := Pipeline[form]{{Name: "ok", Fn: func(context.Context, form) (string, error) { return "", nil }}}
	assert.NoError(t, p.Run(context.Background(), form{}))
}

func TestDomainAllowList(t *testing.T) {
	l := NewDomainAllowList([]string{"gmail.com", " @iCloud.com", ""})

	assert.True(t, l.Allows("user@gmail.com"))
	assert.True(t, l.Allows("User@ICLOUD.COM"))
	assert.True(t, l.Allows("someone@mail.gmail.com"))
	assert.False(t, l.Allows("user@invalid-domain.com"))
	assert.False(t, l.Allows("user@notgmail.com"))
	assert.False(t, l.Allows("no-at-sign"))
	assert.False(t, l.Allows("trailing@"))
	assert.Equal(t, []string{"gmail.com", "icloud.com"}, l.Domains())
}
