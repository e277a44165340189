package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrioooo/job-tracker/internal/apperr"
)

func TestIsKind_WalksNestedDomainErrors(t *testing.T) {
	inner := apperr.NotFound("application not found", nil)
	outer := apperr.StoreWrite("update failed", inner)

	assert.True(t, apperr.IsKind(outer, apperr.KindStoreWrite))
	assert.True(t, apperr.IsKind(outer, apperr.KindNotFound))
	assert.False(t, apperr.IsKind(outer, apperr.KindAuth))
	assert.Equal(t, apperr.KindStoreWrite, apperr.KindOf(outer))
}

func TestIsKind_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", apperr.Auth("wrong password", nil))

	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	assert.Equal(t, "wrong password", apperr.Message(err))
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.False(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Equal(t, "internal server error", apperr.Message(err))
}

func TestNew_CapturesStack(t *testing.T) {
	err := apperr.Validation("bad input", errors.New("cause"))

	assert.NotEmpty(t, err.StackTrace())
	assert.Equal(t, "VALIDATION: bad input: cause", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
