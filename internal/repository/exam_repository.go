package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

const examColumns = `id, course_id, title, access_code, duration_minutes, passing_score, created_at`

// ExamRepository handles exam and question data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam with its questions. Returns pgx.ErrNoRows when absent.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return r.withQuestions(ctx, e)
}

// GetByCode resolves an access code case-insensitively.
func (r *ExamRepository) GetByCode(ctx context.Context, code string) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE LOWER(access_code) = LOWER($1)`, code))
	if err != nil {
		return nil, err
	}
	return r.withQuestions(ctx, e)
}

// ListAll returns every exam with its questions. Used for cache prewarming on startup.
func (r *ExamRepository) ListAll(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		exams = append(exams, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range exams {
		if _, err := r.withQuestions(ctx, &exams[i]); err != nil {
			return nil, err
		}
	}
	return exams, nil
}

// Create inserts an exam and its questions in one transaction.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (course_id, title, access_code, duration_minutes, passing_score)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.CourseID, e.Title, e.AccessCode, e.DurationMinutes, e.PassingScore,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	for i := range e.Questions {
		q := &e.Questions[i]
		q.ExamID = e.ID
		if q.Points == 0 {
			q.Points = 1
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, text, options, correct_option, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			q.ExamID, q.Text, q.Options, q.CorrectOption, q.Points, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *ExamRepository) withQuestions(ctx context.Context, e *model.Exam) (*model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, text, options, correct_option, points, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num, id`, e.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	e.Questions = e.Questions[:0]
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Options, &q.CorrectOption, &q.Points, &q.OrderNum); err != nil {
			return nil, err
		}
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.CourseID, &e.Title, &e.AccessCode,
		&e.DurationMinutes, &e.PassingScore, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
