package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal/internal/model"
)

// EnrollmentRepository reads the student-record enrollment facts.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// GetByStudent retrieves the enrollment fact for a student. Returns pgx.ErrNoRows when absent.
func (r *EnrollmentRepository) GetByStudent(ctx context.Context, studentID int) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, course_id, payment_status, updated_at
		 FROM student_enrollments WHERE student_id = $1`, studentID,
	).Scan(&e.StudentID, &e.CourseID, &e.PaymentStatus, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert writes an enrollment fact. Only the seed tool calls this; the
// student-record system is the owner in production.
func (r *EnrollmentRepository) Upsert(ctx context.Context, e *model.Enrollment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO student_enrollments (student_id, course_id, payment_status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id) DO UPDATE
		 SET course_id = EXCLUDED.course_id,
		     payment_status = EXCLUDED.payment_status,
		     updated_at = NOW()
		 RETURNING updated_at`,
		e.StudentID, e.CourseID, e.PaymentStatus,
	).Scan(&e.UpdatedAt)
}
