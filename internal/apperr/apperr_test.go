package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCode(t *testing.T) {
	assert.Same(t, ErrPaymentRequired, FromCode("PAYMENT_REQUIRED"))
	assert.Same(t, ErrAlreadySubmitted, FromCode("ALREADY_SUBMITTED"))
	assert.Same(t, ErrInternal, FromCode("SOMETHING_ELSE"))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("begin exam: %w", ErrNotEnrolled)
	assert.Equal(t, KindAuthorization, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotEnrolled))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestTransientKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient(cause)

	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAlreadySubmittedIsConflict(t *testing.T) {
	existing := &model.ScoreResult{Score: 2, TotalQuestions: 4, Percentage: 50}
	err := fmt.Errorf("submit: %w", &AlreadySubmittedError{Existing: existing})

	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.False(t, IsRetryable(err))

	var as *AlreadySubmittedError
	require.True(t, errors.As(err, &as))
	assert.Equal(t, 50.0, as.Existing.Percentage)
}
