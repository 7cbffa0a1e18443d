package response

// ErrCode is a typed error code enum for consistent API error identification.
// Codes shared with the exam core mirror apperr so clients can map them back.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrPaymentRequired   ErrCode = "PAYMENT_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation   ErrCode = "VALIDATION_ERROR"
	ErrInvalidID    ErrCode = "INVALID_ID"
	ErrEmptyAnswers ErrCode = "EMPTY_ANSWERS"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound               ErrCode = "NOT_FOUND"
	ErrExamNotFound           ErrCode = "EXAM_NOT_FOUND"
	ErrStudentProfileNotFound ErrCode = "STUDENT_PROFILE_NOT_FOUND"
	ErrScoreNotFound          ErrCode = "SCORE_NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrAlreadyTaken     ErrCode = "ALREADY_TAKEN"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrMalformedExam    ErrCode = "MALFORMED_EXAM"

	// ─── Server ────────────────────────────────────────────────────────
	ErrTransient ErrCode = "TRANSIENT"
	ErrInternal  ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrNotEnrolled:
		return "You are not enrolled in the course this exam belongs to."
	case ErrPaymentRequired:
		return "Course fees must be fully paid before taking this exam."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrEmptyAnswers:
		return "The submission contains no answers."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrExamNotFound:
		return "Exam not found. Check the exam code and try again."
	case ErrStudentProfileNotFound:
		return "Student profile not found."
	case ErrScoreNotFound:
		return "No score has been recorded for this exam."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrAlreadyTaken:
		return "You have already taken this exam."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrMalformedExam:
		return "This exam has no questions and cannot be graded."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrTransient:
		return "Temporary failure. Please try again."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
