package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/metrics"
	"github.com/stemsi/exam-portal/internal/model"
)

// AccessGateService decides whether a student may start an exam attempt.
// It never writes: an attempt only leaves a trace once a Score is stored.
type AccessGateService struct {
	catalog     *ExamCatalogService
	enrollments EnrollmentStore
	scores      ScoreStore
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewAccessGateService creates a new AccessGateService.
func NewAccessGateService(
	catalog *ExamCatalogService,
	enrollments EnrollmentStore,
	scores ScoreStore,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AccessGateService {
	return &AccessGateService{
		catalog:     catalog,
		enrollments: enrollments,
		scores:      scores,
		metrics:     m,
		log:         log.With().Str("component", "access_gate").Logger(),
	}
}

// Begin runs the checks in order, stopping at the first failure:
// exam exists, student enrolled in its course, fees paid, no score yet.
func (s *AccessGateService) Begin(ctx context.Context, studentID int, examCode string) (*model.SessionDescriptor, error) {
	desc, err := s.begin(ctx, studentID, examCode)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if ae := apperr.As(err); ae != nil {
			outcome = ae.Code
		}
		s.log.Info().
			Int("student_id", studentID).
			Str("exam_code", examCode).
			Str("outcome", outcome).
			Msg("Attempt denied")
	} else {
		s.log.Info().
			Int("student_id", studentID).
			Str("exam_id", desc.ExamID.String()).
			Msg("Attempt started")
	}
	s.metrics.Begin(outcome)

	return desc, err
}

func (s *AccessGateService) begin(ctx context.Context, studentID int, examCode string) (*model.SessionDescriptor, error) {
	exam, err := s.catalog.ByCode(ctx, examCode)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotEnrolled
		}
		return nil, apperr.Transient(fmt.Errorf("get enrollment: %w", err))
	}
	if enrollment.CourseID != exam.CourseID {
		return nil, apperr.ErrNotEnrolled
	}

	if enrollment.PaymentStatus != model.PaymentStatusPaid {
		return nil, apperr.ErrPaymentRequired
	}

	taken, err := s.scores.Exists(ctx, studentID, exam.ID)
	if err != nil {
		return nil, apperr.Transient(fmt.Errorf("check existing score: %w", err))
	}
	if taken {
		return nil, apperr.ErrAlreadyTaken
	}

	return exam.Descriptor(), nil
}
