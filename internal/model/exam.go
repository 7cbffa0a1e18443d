package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a catalog entry together with its ordered questions.
// It is immutable once an attempt references it.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	CourseID        uuid.UUID  `json:"course_id"`
	Title           string     `json:"title"`
	AccessCode      string     `json:"access_code"`
	DurationMinutes int        `json:"duration_minutes"`
	PassingScore    float64    `json:"passing_score"`
	Questions       []Question `json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SessionDescriptor is everything a client needs to run an attempt.
// Questions are stripped of the answer key.
type SessionDescriptor struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	PassingScore    float64              `json:"passing_score"`
	Questions       []QuestionForStudent `json:"questions"`
}

// Descriptor builds the client-facing view of the exam.
func (e *Exam) Descriptor() *SessionDescriptor {
	questions := make([]QuestionForStudent, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = q.ForStudent()
	}
	return &SessionDescriptor{
		ExamID:          e.ID,
		Title:           e.Title,
		DurationMinutes: e.DurationMinutes,
		PassingScore:    e.PassingScore,
		Questions:       questions,
	}
}

// BeginExamRequest is the payload for starting an attempt.
type BeginExamRequest struct {
	ExamCode string `json:"exam_code" binding:"required,notblank,max=64"`
}
