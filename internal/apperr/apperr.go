// Package apperr defines the error taxonomy shared by the API server and the
// exam-taking client. Every error a caller can observe carries a stable Kind
// and a wire Code so both sides agree on retry and display semantics.
package apperr

import (
	"errors"
	"net/http"
)

// Kind groups errors by how a caller must react to them.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindValidation    Kind = "validation"
	KindTransient     Kind = "transient"
	KindInternal      Kind = "internal"
)

// Error is a classified application error. Sentinels below are compared by
// identity, so wrap them with fmt.Errorf("...: %w", ErrX) to add context.
type Error struct {
	Kind    Kind
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrExamNotFound           = &Error{KindNotFound, "EXAM_NOT_FOUND", http.StatusNotFound, "exam not found"}
	ErrStudentProfileNotFound = &Error{KindNotFound, "STUDENT_PROFILE_NOT_FOUND", http.StatusNotFound, "student profile not found"}
	ErrScoreNotFound          = &Error{KindNotFound, "SCORE_NOT_FOUND", http.StatusNotFound, "no score recorded for this exam"}

	ErrNotEnrolled     = &Error{KindAuthorization, "NOT_ENROLLED", http.StatusForbidden, "student is not enrolled in the exam's course"}
	ErrPaymentRequired = &Error{KindAuthorization, "PAYMENT_REQUIRED", http.StatusForbidden, "course fees must be fully paid before taking the exam"}

	ErrAlreadyTaken     = &Error{KindConflict, "ALREADY_TAKEN", http.StatusBadRequest, "exam has already been taken"}
	ErrAlreadySubmitted = &Error{KindConflict, "ALREADY_SUBMITTED", http.StatusBadRequest, "exam has already been submitted"}

	ErrMalformedExam = &Error{KindValidation, "MALFORMED_EXAM", http.StatusUnprocessableEntity, "exam has no questions and cannot be graded"}
	ErrEmptyAnswers  = &Error{KindValidation, "EMPTY_ANSWERS", http.StatusBadRequest, "answer payload is empty"}
	ErrValidation    = &Error{KindValidation, "VALIDATION_ERROR", http.StatusBadRequest, "request validation failed"}

	ErrTransient = &Error{KindTransient, "TRANSIENT", http.StatusServiceUnavailable, "temporary failure, try again"}
	ErrInternal  = &Error{KindInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "internal server error"}
)

var byCode = map[string]*Error{}

func init() {
	for _, e := range []*Error{
		ErrExamNotFound, ErrStudentProfileNotFound, ErrScoreNotFound,
		ErrNotEnrolled, ErrPaymentRequired,
		ErrAlreadyTaken, ErrAlreadySubmitted,
		ErrMalformedExam, ErrEmptyAnswers, ErrValidation,
		ErrTransient, ErrInternal,
	} {
		byCode[e.Code] = e
	}
}

// FromCode maps a wire code back to its sentinel. Unknown codes map to ErrInternal.
func FromCode(code string) *Error {
	if e, ok := byCode[code]; ok {
		return e
	}
	return ErrInternal
}

// As extracts the classified error from err's chain, or nil.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if ae := As(err); ae != nil {
		return ae.Kind
	}
	return KindInternal
}

// IsRetryable is true only for transient failures. Retrying anything else
// cannot change the outcome.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// Transient marks a storage or network failure as retryable while keeping the cause.
func Transient(cause error) error {
	return &transientError{cause: cause}
}

type transientError struct {
	cause error
}

func (e *transientError) Error() string {
	return ErrTransient.Message + ": " + e.cause.Error()
}

func (e *transientError) Unwrap() []error { return []error{ErrTransient, e.cause} }
