// Package grading scores a submission against an exam's answer key.
// Everything here is pure: no I/O, no clocks, same inputs give the same output.
package grading

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/model"
)

// Result is the outcome of grading one submission.
type Result struct {
	Score          int
	TotalQuestions int
	Percentage     float64
	Status         model.ScoreStatus
	Answers        []model.AnswerLogEntry
}

// Grade scores answers against exam. The total is the exam's question count,
// so questions missing from answers count as unanswered. When an id is
// submitted more than once the first entry wins. Scoring is count-based;
// Question.Points is not consulted.
func Grade(exam *model.Exam, answers []model.SubmittedAnswer) (Result, error) {
	total := len(exam.Questions)
	if total == 0 {
		return Result{}, apperr.ErrMalformedExam
	}

	selected := make(map[uuid.UUID]int, len(answers))
	for _, a := range answers {
		if _, seen := selected[a.QuestionID]; !seen {
			selected[a.QuestionID] = a.SelectedOption
		}
	}

	correct := 0
	log := make([]model.AnswerLogEntry, 0, total)
	for _, q := range exam.Questions {
		choice, ok := selected[q.ID]
		if !ok {
			choice = model.UnansweredOption
		}
		isCorrect := choice != model.UnansweredOption && choice == q.CorrectOption
		if isCorrect {
			correct++
		}
		log = append(log, model.AnswerLogEntry{
			QuestionID:     q.ID,
			SelectedOption: choice,
			CorrectOption:  q.CorrectOption,
			IsCorrect:      isCorrect,
		})
	}

	pct := Percentage(correct, total)
	return Result{
		Score:          correct,
		TotalQuestions: total,
		Percentage:     pct,
		Status:         StatusFor(pct, exam.PassingScore),
		Answers:        log,
	}, nil
}

// Percentage returns score/total*100 rounded to two decimal places.
// Callers guarantee total > 0.
func Percentage(score, total int) float64 {
	pct, _ := decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2).
		Float64()
	return pct
}

// StatusFor applies the pass mark: a percentage equal to the passing score passes.
func StatusFor(percentage, passingScore float64) model.ScoreStatus {
	if percentage >= passingScore {
		return model.ScoreStatusPassed
	}
	return model.ScoreStatusFailed
}
