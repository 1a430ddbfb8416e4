package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(New(KindValidation, "bad input")))
	assert.Equal(t, KindRateLimit, KindOf(RateLimit("slow down", 30)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOf_wrappedChain(t *testing.T) {
	inner := New(KindConflict, "already exists")
	outer := fmt.Errorf("creating user: %w", inner)
	assert.Equal(t, KindConflict, KindOf(outer))
}

func TestAs_untaggedBecomesUnknown(t *testing.T) {
	plain := errors.New("socket closed")
	e := As(plain)
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, "internal error", e.Message)
	assert.ErrorIs(t, e, plain)
}

func TestError_unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	wrapped := Wrap(KindConnection, "cannot reach provider", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "cannot reach provider")
	assert.Contains(t, wrapped.Error(), "refused")
}

func TestRateLimit_carriesRetryAfter(t *testing.T) {
	e := As(RateLimit("try again later", 45))
	assert.Equal(t, KindRateLimit, e.Kind)
	assert.Equal(t, 45, e.RetryAfter)
}
