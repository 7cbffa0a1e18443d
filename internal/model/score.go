package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreStatus is the pass/fail outcome of a graded attempt.
type ScoreStatus string

const (
	ScoreStatusPassed ScoreStatus = "passed"
	ScoreStatusFailed ScoreStatus = "failed"
)

// UnansweredOption marks a question with no selection on the wire.
const UnansweredOption = -1

// AnswerLogEntry records how one question was graded.
type AnswerLogEntry struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption int       `json:"selected_option"`
	CorrectOption  int       `json:"correct_option"`
	IsCorrect      bool      `json:"is_correct"`
}

// Score is the single persisted, immutable result of an attempt.
// At most one exists per (StudentID, ExamID).
type Score struct {
	ID               uuid.UUID        `json:"id"`
	StudentID        int              `json:"student_id"`
	ExamID           uuid.UUID        `json:"exam_id"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
	Percentage       float64          `json:"percentage"`
	Status           ScoreStatus      `json:"status"`
	PassingScore     float64          `json:"passing_score"`
	TimeTakenMinutes int              `json:"time_taken_minutes"`
	Answers          []AnswerLogEntry `json:"answers"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// ScoreResult is the submit response body.
type ScoreResult struct {
	Score          int         `json:"score"`
	TotalQuestions int         `json:"total_questions"`
	Percentage     float64     `json:"percentage"`
	Status         ScoreStatus `json:"status"`
	PassingScore   float64     `json:"passing_score"`
}

// Result projects the persisted score onto the response shape.
func (s *Score) Result() *ScoreResult {
	return &ScoreResult{
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
		Status:         s.Status,
		PassingScore:   s.PassingScore,
	}
}

// SubmittedAnswer is one entry of the submission wire form.
// SelectedOption is UnansweredOption when nothing was chosen.
type SubmittedAnswer struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption int       `json:"selected_option" binding:"min=-1"`
}

// SubmitExamRequest is the payload for finishing an attempt.
type SubmitExamRequest struct {
	Answers          []SubmittedAnswer `json:"answers" binding:"dive"`
	TimeTakenMinutes int               `json:"time_taken_minutes" binding:"min=0,max=1440"`
}

// ScoreFinalizedEvent is handed to the certificate process once a Score exists.
type ScoreFinalizedEvent struct {
	ScoreID     uuid.UUID   `json:"score_id"`
	StudentID   int         `json:"student_id"`
	ExamID      uuid.UUID   `json:"exam_id"`
	Percentage  float64     `json:"percentage"`
	Status      ScoreStatus `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
