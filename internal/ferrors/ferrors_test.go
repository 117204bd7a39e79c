package ferrors

import (
	stderrors "errors"
	"testing"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := New(NoMatch, "no candidate cleared threshold")
	wrapped := errors.Wrap(err, "identify")

	assert.True(t, stderrors.Is(wrapped, ErrNoMatch))
	assert.True(t, Is(wrapped, NoMatch))
	assert.False(t, Is(wrapped, SchemaMismatch))
}

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	err := New(InvalidAudio, "bad header")
	assert.Equal(t, "InvalidAudio: bad header", err.Error())
}

func TestErrorStringWithoutMessage(t *testing.T) {
	err := &Error{Kind: Cancelled}
	assert.Equal(t, "Cancelled", err.Error())
}
