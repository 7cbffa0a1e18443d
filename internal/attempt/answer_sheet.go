// Package attempt holds the client side of one exam attempt: the answer
// sheet being filled in and the clock that bounds it.
package attempt

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/model"
)

// AnswerSheet records at most one selected option per question. It never
// sees the answer key.
type AnswerSheet struct {
	mu       sync.Mutex
	order    []uuid.UUID
	options  map[uuid.UUID]int
	selected map[uuid.UUID]int
}

// NewAnswerSheet creates an empty sheet keyed by the descriptor's questions.
func NewAnswerSheet(questions []model.QuestionForStudent) *AnswerSheet {
	s := &AnswerSheet{
		order:    make([]uuid.UUID, 0, len(questions)),
		options:  make(map[uuid.UUID]int, len(questions)),
		selected: make(map[uuid.UUID]int, len(questions)),
	}
	for _, q := range questions {
		if _, dup := s.options[q.ID]; dup {
			continue
		}
		s.order = append(s.order, q.ID)
		s.options[q.ID] = len(q.Options)
	}
	return s
}

// Select overwrites the selection for questionID. Passing
// model.UnansweredOption clears it.
func (s *AnswerSheet) Select(questionID uuid.UUID, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.options[questionID]
	if !ok {
		return fmt.Errorf("%w: unknown question %s", apperr.ErrValidation, questionID)
	}
	if option == model.UnansweredOption {
		delete(s.selected, questionID)
		return nil
	}
	if option < 0 || option >= n {
		return fmt.Errorf("%w: option %d out of range for question %s", apperr.ErrValidation, option, questionID)
	}
	s.selected[questionID] = option
	return nil
}

// Selected returns the current selection for questionID.
func (s *AnswerSheet) Selected(questionID uuid.UUID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.selected[questionID]
	return opt, ok
}

// UnansweredCount is the number of questions without a selection.
func (s *AnswerSheet) UnansweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) - len(s.selected)
}

// Len is the number of questions on the sheet.
func (s *AnswerSheet) Len() int {
	return len(s.order)
}

// ToSubmission returns one entry per question in exam order, using
// model.UnansweredOption where nothing was selected.
func (s *AnswerSheet) ToSubmission() []model.SubmittedAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SubmittedAnswer, len(s.order))
	for i, id := range s.order {
		opt, ok := s.selected[id]
		if !ok {
			opt = model.UnansweredOption
		}
		out[i] = model.SubmittedAnswer{QuestionID: id, SelectedOption: opt}
	}
	return out
}
