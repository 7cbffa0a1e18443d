package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exam-portal/internal/cache"
	"github.com/stemsi/exam-portal/internal/model"
)

type fakeExamStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]*model.Exam
	err   error
	reads int
}

func newFakeExamStore(exams ...*model.Exam) *fakeExamStore {
	s := &fakeExamStore{exams: make(map[uuid.UUID]*model.Exam)}
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

func (s *fakeExamStore) GetByCode(_ context.Context, code string) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	for _, e := range s.exams {
		if strings.EqualFold(e.AccessCode, code) {
			return e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeExamStore) ListAll(context.Context) ([]model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Exam, 0, len(s.exams))
	for _, e := range s.exams {
		out = append(out, *e)
	}
	return out, nil
}

type fakeSnapshotCache struct {
	mu    sync.Mutex
	exams map[uuid.UUID]*model.Exam
	codes map[string]uuid.UUID
	err   error
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{
		exams: make(map[uuid.UUID]*model.Exam),
		codes: make(map[string]uuid.UUID),
	}
}

func (c *fakeSnapshotCache) Get(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	e, ok := c.exams[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return e, nil
}

func (c *fakeSnapshotCache) LookupCode(_ context.Context, code string) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return uuid.Nil, c.err
	}
	id, ok := c.codes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return uuid.Nil, cache.ErrMiss
	}
	return id, nil
}

func (c *fakeSnapshotCache) Put(_ context.Context, e *model.Exam) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.exams[e.ID] = e
	c.codes[strings.ToLower(e.AccessCode)] = e.ID
	return nil
}

type fakeEnrollmentStore struct {
	byStudent map[int]*model.Enrollment
	err       error
}

func (s *fakeEnrollmentStore) GetByStudent(_ context.Context, studentID int) (*model.Enrollment, error) {
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.byStudent[studentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

type scoreKey struct {
	student int
	exam    uuid.UUID
}

// fakeScoreStore mimics the unique constraint with a mutex.
type fakeScoreStore struct {
	mu      sync.Mutex
	scores  map[scoreKey]*model.Score
	inserts int
	err     error
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{scores: make(map[scoreKey]*model.Score)}
}

func (s *fakeScoreStore) InsertIfAbsent(_ context.Context, sc *model.Score) (*model.Score, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	k := scoreKey{sc.StudentID, sc.ExamID}
	if existing, ok := s.scores[k]; ok {
		return existing, false, nil
	}
	stored := *sc
	stored.ID = uuid.New()
	stored.SubmittedAt = time.Now()
	s.scores[k] = &stored
	s.inserts++
	return &stored, true, nil
}

func (s *fakeScoreStore) GetByStudentAndExam(_ context.Context, studentID int, examID uuid.UUID) (*model.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sc, ok := s.scores[scoreKey{studentID, examID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return sc, nil
}

func (s *fakeScoreStore) Exists(_ context.Context, studentID int, examID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.scores[scoreKey{studentID, examID}]
	return ok, nil
}

type fakeEventQueue struct {
	mu     sync.Mutex
	events []model.ScoreFinalizedEvent
	err    error
}

func (q *fakeEventQueue) Enqueue(_ context.Context, ev model.ScoreFinalizedEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

// fourQuestionExam has correct options 0,1,2,3 and passes at 70.
func fourQuestionExam(courseID uuid.UUID) *model.Exam {
	examID := uuid.New()
	qs := make([]model.Question, 4)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			ExamID:        examID,
			Text:          "Question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i,
			Points:        1,
			OrderNum:      i + 1,
		}
	}
	return &model.Exam{
		ID:              examID,
		CourseID:        courseID,
		Title:           "Fundamentals",
		AccessCode:      "FUND-101",
		DurationMinutes: 30,
		PassingScore:    70,
		Questions:       qs,
	}
}

// answersWithCorrect answers the first n questions correctly and the rest wrong.
func answersWithCorrect(exam *model.Exam, n int) []model.SubmittedAnswer {
	out := make([]model.SubmittedAnswer, len(exam.Questions))
	for i, q := range exam.Questions {
		opt := q.CorrectOption
		if i >= n {
			opt = (q.CorrectOption + 1) % len(q.Options)
		}
		out[i] = model.SubmittedAnswer{QuestionID: q.ID, SelectedOption: opt}
	}
	return out
}
