package model

import (
	"github.com/google/uuid"
)

// Question is a single-correct-option multiple choice item.
// CorrectOption is part of the answer key and stays on the server.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Points        int       `json:"points"`
	OrderNum      int       `json:"order_num"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Options  []string  `json:"options"`
	OrderNum int       `json:"order_num"`
}

// ForStudent drops the answer key.
func (q Question) ForStudent() QuestionForStudent {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionForStudent{
		ID:       q.ID,
		Text:     q.Text,
		Options:  options,
		OrderNum: q.OrderNum,
	}
}
