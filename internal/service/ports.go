package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal/internal/model"
)

// ExamStore is the source of truth for exams and questions.
// Implementations return pgx.ErrNoRows when nothing matches.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetByCode(ctx context.Context, code string) (*model.Exam, error)
	ListAll(ctx context.Context) ([]model.Exam, error)
}

// ExamSnapshotCache is the read-through cache in front of ExamStore.
// Implementations return cache.ErrMiss on a miss.
type ExamSnapshotCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	LookupCode(ctx context.Context, code string) (uuid.UUID, error)
	Put(ctx context.Context, exam *model.Exam) error
}

// EnrollmentStore reads enrollment facts owned by the student-record system.
type EnrollmentStore interface {
	GetByStudent(ctx context.Context, studentID int) (*model.Enrollment, error)
}

// ScoreStore persists scores. InsertIfAbsent must be a single atomic
// operation keyed by (studentID, examID).
type ScoreStore interface {
	InsertIfAbsent(ctx context.Context, s *model.Score) (*model.Score, bool, error)
	GetByStudentAndExam(ctx context.Context, studentID int, examID uuid.UUID) (*model.Score, error)
	Exists(ctx context.Context, studentID int, examID uuid.UUID) (bool, error)
}

// ScoreEventQueue hands finalized scores to the certificate pipeline.
type ScoreEventQueue interface {
	Enqueue(ctx context.Context, ev model.ScoreFinalizedEvent) error
}
