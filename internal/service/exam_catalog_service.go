package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/cache"
	"github.com/stemsi/exam-portal/internal/model"
)

// ExamCatalogService resolves exams by code or id, reading through the Redis
// snapshot cache and falling back to PostgreSQL.
type ExamCatalogService struct {
	store ExamStore
	cache ExamSnapshotCache
	log   zerolog.Logger
}

// NewExamCatalogService creates a new ExamCatalogService.
func NewExamCatalogService(store ExamStore, snapshots ExamSnapshotCache, log zerolog.Logger) *ExamCatalogService {
	return &ExamCatalogService{
		store: store,
		cache: snapshots,
		log:   log.With().Str("component", "exam_catalog").Logger(),
	}
}

// ByCode resolves an access code, ignoring case and surrounding whitespace.
func (s *ExamCatalogService) ByCode(ctx context.Context, code string) (*model.Exam, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.ErrExamNotFound
	}

	id, err := s.cache.LookupCode(ctx, code)
	if err == nil {
		exam, err := s.ByID(ctx, id)
		if err == nil && strings.EqualFold(exam.AccessCode, code) {
			return exam, nil
		}
		// Stale index entry; fall through to the store.
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Msg("Code index lookup failed, using database")
	}

	exam, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrExamNotFound
		}
		return nil, apperr.Transient(fmt.Errorf("get exam by code: %w", err))
	}

	s.remember(ctx, exam)
	return exam, nil
}

// ByID resolves an exam id.
func (s *ExamCatalogService) ByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.cache.Get(ctx, id)
	if err == nil {
		return exam, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Snapshot read failed, using database")
	}

	exam, err = s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrExamNotFound
		}
		return nil, apperr.Transient(fmt.Errorf("get exam: %w", err))
	}

	s.remember(ctx, exam)
	return exam, nil
}

// PrewarmAll loads every exam into Redis before the server accepts traffic.
func (s *ExamCatalogService) PrewarmAll(ctx context.Context) error {
	exams, err := s.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.cache.Put(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// remember self-heals the cache after a miss. Failures only cost latency.
func (s *ExamCatalogService) remember(ctx context.Context, exam *model.Exam) {
	if err := s.cache.Put(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to cache exam snapshot")
	}
}
