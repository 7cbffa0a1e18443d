package apperr

import "github.com/stemsi/exam-portal/internal/model"

// AlreadySubmittedError reports that a Score already exists for the
// (student, exam) pair. Existing is the persisted result, which callers
// must treat as the final outcome of the attempt.
type AlreadySubmittedError struct {
	Existing *model.ScoreResult
}

func (e *AlreadySubmittedError) Error() string { return ErrAlreadySubmitted.Message }

func (e *AlreadySubmittedError) Unwrap() error { return ErrAlreadySubmitted }
