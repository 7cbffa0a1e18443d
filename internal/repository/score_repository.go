package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

// ScoreRepository handles the scores table. The (student_id, exam_id) unique
// constraint is what makes a Score write-once.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// InsertIfAbsent creates s unless a score already exists for the pair.
// It returns the stored row and whether this call inserted it. On conflict
// s is discarded and the existing row is returned unchanged.
func (r *ScoreRepository) InsertIfAbsent(ctx context.Context, s *model.Score) (*model.Score, bool, error) {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return nil, false, fmt.Errorf("marshal answers: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO scores (student_id, exam_id, score, total_questions, percentage,
		                     status, passing_score, time_taken_minutes, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (student_id, exam_id) DO NOTHING
		 RETURNING id, submitted_at`,
		s.StudentID, s.ExamID, s.Score, s.TotalQuestions, s.Percentage,
		s.Status, s.PassingScore, s.TimeTakenMinutes, answers,
	).Scan(&s.ID, &s.SubmittedAt)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: another submit for this pair already won.
	existing, err := r.GetByStudentAndExam(ctx, s.StudentID, s.ExamID)
	if err != nil {
		return nil, false, fmt.Errorf("conflict detected, but fetch failed: %w", err)
	}
	return existing, false, nil
}

// GetByStudentAndExam retrieves the score for a pair. Returns pgx.ErrNoRows when absent.
func (r *ScoreRepository) GetByStudentAndExam(ctx context.Context, studentID int, examID uuid.UUID) (*model.Score, error) {
	s := &model.Score{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, exam_id, score, total_questions, percentage, status,
		        passing_score, time_taken_minutes, answers, submitted_at
		 FROM scores
		 WHERE student_id = $1 AND exam_id = $2`, studentID, examID,
	).Scan(&s.ID, &s.StudentID, &s.ExamID, &s.Score, &s.TotalQuestions, &s.Percentage, &s.Status,
		&s.PassingScore, &s.TimeTakenMinutes, &answers, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return s, nil
}

// Exists reports whether a score has been recorded for the pair.
func (r *ScoreRepository) Exists(ctx context.Context, studentID int, examID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM scores WHERE student_id = $1 AND exam_id = $2)`,
		studentID, examID,
	).Scan(&exists)
	return exists, err
}
