package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_ByCode_FillsCache(t *testing.T) {
	exam := fourQuestionExam(uuid.New())
	store := newFakeExamStore(exam)
	snapshots := newFakeSnapshotCache()
	catalog := NewExamCatalogService(store, snapshots, zerolog.Nop())

	got, err := catalog.ByCode(context.Background(), "  Fund-101 ")
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
	assert.Equal(t, 1, store.reads)

	got, err = catalog.ByCode(context.Background(), "FUND-101")
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
	assert.Equal(t, 1, store.reads, "second lookup must be served from cache")
}

func TestCatalog_ByID_CacheDownFallsBack(t *testing.T) {
	exam := fourQuestionExam(uuid.New())
	snapshots := newFakeSnapshotCache()
	snapshots.err = errors.New("redis down")
	catalog := NewExamCatalogService(newFakeExamStore(exam), snapshots, zerolog.Nop())

	got, err := catalog.ByID(context.Background(), exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
}

func TestCatalog_NotFound(t *testing.T) {
	catalog := NewExamCatalogService(newFakeExamStore(), newFakeSnapshotCache(), zerolog.Nop())

	_, err := catalog.ByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrExamNotFound)

	_, err = catalog.ByCode(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrExamNotFound)
}

func TestCatalog_StoreErrorIsTransient(t *testing.T) {
	store := newFakeExamStore()
	store.err = errors.New("timeout")
	catalog := NewExamCatalogService(store, newFakeSnapshotCache(), zerolog.Nop())

	_, err := catalog.ByID(context.Background(), uuid.New())
	assert.True(t, apperr.IsRetryable(err))
}

func TestCatalog_PrewarmAll(t *testing.T) {
	a := fourQuestionExam(uuid.New())
	b := fourQuestionExam(uuid.New())
	b.AccessCode = "OTHER-1"
	snapshots := newFakeSnapshotCache()
	catalog := NewExamCatalogService(newFakeExamStore(a, b), snapshots, zerolog.Nop())

	require.NoError(t, catalog.PrewarmAll(context.Background()))
	assert.Len(t, snapshots.exams, 2)

	id, err := snapshots.LookupCode(context.Background(), "other-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)
}
