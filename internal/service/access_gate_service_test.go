package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFixture struct {
	exam        *model.Exam
	enrollments *fakeEnrollmentStore
	scores      *fakeScoreStore
	gate        *AccessGateService
}

func newGateFixture(status model.PaymentStatus) *gateFixture {
	courseID := uuid.New()
	exam := fourQuestionExam(courseID)
	enrollments := &fakeEnrollmentStore{byStudent: map[int]*model.Enrollment{
		7: {StudentID: 7, CourseID: courseID, PaymentStatus: status},
		8: {StudentID: 8, CourseID: uuid.New(), PaymentStatus: model.PaymentStatusPaid},
	}}
	scores := newFakeScoreStore()
	catalog := NewExamCatalogService(newFakeExamStore(exam), newFakeSnapshotCache(), zerolog.Nop())

	return &gateFixture{
		exam:        exam,
		enrollments: enrollments,
		scores:      scores,
		gate:        NewAccessGateService(catalog, enrollments, scores, nil, zerolog.Nop()),
	}
}

func TestBegin_Success_StripsAnswerKey(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)

	desc, err := f.gate.Begin(context.Background(), 7, "fund-101")
	require.NoError(t, err)

	assert.Equal(t, f.exam.ID, desc.ExamID)
	assert.Equal(t, 30, desc.DurationMinutes)
	assert.Equal(t, 70.0, desc.PassingScore)
	require.Len(t, desc.Questions, 4)
	assert.Equal(t, f.exam.Questions[0].ID, desc.Questions[0].ID)
}

func TestBegin_UnknownCode(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)

	_, err := f.gate.Begin(context.Background(), 7, "NOPE")
	assert.ErrorIs(t, err, apperr.ErrExamNotFound)
}

func TestBegin_OtherCourse(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)

	_, err := f.gate.Begin(context.Background(), 8, "FUND-101")
	assert.ErrorIs(t, err, apperr.ErrNotEnrolled)
}

func TestBegin_NoEnrollment(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)

	_, err := f.gate.Begin(context.Background(), 99, "FUND-101")
	assert.ErrorIs(t, err, apperr.ErrNotEnrolled)
}

func TestBegin_PaymentGate(t *testing.T) {
	for _, status := range []model.PaymentStatus{model.PaymentStatusUnpaid, model.PaymentStatusPartial} {
		t.Run(string(status), func(t *testing.T) {
			f := newGateFixture(status)

			_, err := f.gate.Begin(context.Background(), 7, "FUND-101")
			assert.ErrorIs(t, err, apperr.ErrPaymentRequired)
			assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
		})
	}
}

func TestBegin_ReentryGate(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)
	_, _, err := f.scores.InsertIfAbsent(context.Background(), &model.Score{StudentID: 7, ExamID: f.exam.ID})
	require.NoError(t, err)

	_, err = f.gate.Begin(context.Background(), 7, "FUND-101")
	assert.ErrorIs(t, err, apperr.ErrAlreadyTaken)
	assert.False(t, apperr.IsRetryable(err))
}

func TestBegin_PaymentCheckedBeforeReentry(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPartial)
	_, _, err := f.scores.InsertIfAbsent(context.Background(), &model.Score{StudentID: 7, ExamID: f.exam.ID})
	require.NoError(t, err)

	_, err = f.gate.Begin(context.Background(), 7, "FUND-101")
	assert.ErrorIs(t, err, apperr.ErrPaymentRequired)
}

func TestBegin_StoreFailureIsTransient(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)
	f.enrollments.err = errors.New("connection reset")

	_, err := f.gate.Begin(context.Background(), 7, "FUND-101")
	assert.True(t, apperr.IsRetryable(err))
}

func TestBegin_WritesNothing(t *testing.T) {
	f := newGateFixture(model.PaymentStatusPaid)

	for i := 0; i < 3; i++ {
		_, err := f.gate.Begin(context.Background(), 7, "FUND-101")
		require.NoError(t, err)
	}
	assert.Zero(t, f.scores.inserts)
}
