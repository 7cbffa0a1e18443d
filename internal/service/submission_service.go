package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/grading"
	"github.com/stemsi/exam-portal/internal/metrics"
	"github.com/stemsi/exam-portal/internal/model"
)

// SubmissionService grades a submission and persists at most one Score per
// (student, exam). The guard is the store's atomic insert-if-absent; there is
// no separate "already submitted?" read before writing.
type SubmissionService struct {
	catalog     *ExamCatalogService
	enrollments EnrollmentStore
	scores      ScoreStore
	events      ScoreEventQueue
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	catalog *ExamCatalogService,
	enrollments EnrollmentStore,
	scores ScoreStore,
	events ScoreEventQueue,
	m *metrics.Metrics,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		catalog:     catalog,
		enrollments: enrollments,
		scores:      scores,
		events:      events,
		metrics:     m,
		log:         log.With().Str("component", "submission_guard").Logger(),
	}
}

// Submit grades answers and stores the Score. If a Score already exists the
// freshly computed one is discarded and an *apperr.AlreadySubmittedError
// carrying the stored result is returned.
func (s *SubmissionService) Submit(ctx context.Context, studentID int, examID uuid.UUID, req model.SubmitExamRequest) (*model.ScoreResult, error) {
	if len(req.Answers) == 0 {
		s.metrics.Submit(metrics.OutcomeRejected)
		return nil, apperr.ErrEmptyAnswers
	}

	if _, err := s.enrollments.GetByStudent(ctx, studentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.Submit(metrics.OutcomeRejected)
			return nil, apperr.ErrStudentProfileNotFound
		}
		s.metrics.Submit(metrics.OutcomeError)
		return nil, apperr.Transient(fmt.Errorf("get student profile: %w", err))
	}

	exam, err := s.catalog.ByID(ctx, examID)
	if err != nil {
		s.metrics.Submit(outcomeOf(err))
		return nil, err
	}

	graded, err := grading.Grade(exam, req.Answers)
	if err != nil {
		s.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Grading failed")
		s.metrics.Submit(metrics.OutcomeRejected)
		return nil, err
	}

	candidate := &model.Score{
		StudentID:        studentID,
		ExamID:           examID,
		Score:            graded.Score,
		TotalQuestions:   graded.TotalQuestions,
		Percentage:       graded.Percentage,
		Status:           graded.Status,
		PassingScore:     exam.PassingScore,
		TimeTakenMinutes: req.TimeTakenMinutes,
		Answers:          graded.Answers,
	}

	stored, inserted, err := s.scores.InsertIfAbsent(ctx, candidate)
	if err != nil {
		s.log.Error().Err(err).
			Int("student_id", studentID).
			Str("exam_id", examID.String()).
			Msg("Score insert failed")
		s.metrics.Submit(metrics.OutcomeError)
		return nil, apperr.Transient(fmt.Errorf("insert score: %w", err))
	}

	attemptLog := s.log.With().
		Int("student_id", studentID).
		Str("exam_id", examID.String()).
		Logger()

	if !inserted {
		attemptLog.Info().
			Float64("existing_percentage", stored.Percentage).
			Msg("Duplicate submission, keeping existing score")
		s.metrics.Submit(metrics.OutcomeAlreadySubmitted)
		return nil, &apperr.AlreadySubmittedError{Existing: stored.Result()}
	}

	attemptLog.Info().
		Int("score", stored.Score).
		Int("total", stored.TotalQuestions).
		Float64("percentage", stored.Percentage).
		Str("status", string(stored.Status)).
		Msg("Exam submitted and graded")
	s.metrics.Submit(metrics.OutcomeOK)

	s.announce(ctx, stored)
	return stored.Result(), nil
}

// GetScore returns the caller's persisted score for an exam.
func (s *SubmissionService) GetScore(ctx context.Context, studentID int, examID uuid.UUID) (*model.Score, error) {
	score, err := s.scores.GetByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrScoreNotFound
		}
		return nil, apperr.Transient(fmt.Errorf("get score: %w", err))
	}
	return score, nil
}

// announce queues the score for the certificate pipeline. The Score is
// already durable, so a queue failure is logged and never surfaced.
func (s *SubmissionService) announce(ctx context.Context, score *model.Score) {
	if s.events == nil {
		return
	}
	err := s.events.Enqueue(ctx, model.ScoreFinalizedEvent{
		ScoreID:     score.ID,
		StudentID:   score.StudentID,
		ExamID:      score.ExamID,
		Percentage:  score.Percentage,
		Status:      score.Status,
		SubmittedAt: score.SubmittedAt,
	})
	if err != nil {
		s.metrics.Event(metrics.OutcomeEventEnqueueError)
		s.log.Warn().Err(err).Str("score_id", score.ID.String()).Msg("Failed to queue score event")
	}
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindTransient, apperr.KindInternal:
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
