package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates course fee states.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Enrollment is the student-record fact consulted before an attempt starts.
// The student-record system owns it; this subsystem only reads it.
type Enrollment struct {
	StudentID     int           `json:"student_id"`
	CourseID      uuid.UUID     `json:"course_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
