//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/attempt"
	"github.com/stemsi/exam-portal/internal/client"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/repository"
	"github.com/stemsi/exam-portal/internal/service"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	paidStudent    = 900001
	unpaidStudent  = 900002
	clockStudent   = 900003
)

var (
	baseURL string
	exam    *model.Exam
	tokens  = map[int]string{}
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if err := seed(); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// seed inserts a fresh exam and enrollments, then mints tokens the same
// way the identity provider does.
func seed() error {
	ctx := context.Background()
	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	courseID := uuid.New()
	exam = &model.Exam{
		CourseID:        courseID,
		Title:           "E2E Exam",
		AccessCode:      "E2E-" + uuid.NewString()[:8],
		DurationMinutes: 10,
		PassingScore:    70,
	}
	for i := 0; i < 4; i++ {
		exam.Questions = append(exam.Questions, model.Question{
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i,
			OrderNum:      i + 1,
		})
	}
	if err := repository.NewExamRepository(pool).Create(ctx, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	enrollments := repository.NewEnrollmentRepository(pool)
	auth := service.NewAuthService(cfg)
	for id, status := range map[int]model.PaymentStatus{
		paidStudent:   model.PaymentStatusPaid,
		unpaidStudent: model.PaymentStatusPartial,
		clockStudent:  model.PaymentStatusPaid,
	} {
		if _, err := pool.Exec(ctx, `DELETE FROM scores WHERE student_id = $1`, id); err != nil {
			return fmt.Errorf("cleanup scores: %w", err)
		}
		if err := enrollments.Upsert(ctx, &model.Enrollment{StudentID: id, CourseID: courseID, PaymentStatus: status}); err != nil {
			return fmt.Errorf("enroll %d: %w", id, err)
		}
		tok, err := auth.GenerateStudentToken(id)
		if err != nil {
			return err
		}
		tokens[id] = tok
	}
	return nil
}

func TestE2EFlow(t *testing.T) {
	var desc model.SessionDescriptor

	// Step 1: Unpaid student is turned away
	t.Run("BeginUnpaid", func(t *testing.T) {
		resp, err := post("/student/exams/begin", map[string]string{"exam_code": exam.AccessCode}, tokens[unpaidStudent])
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 2: Paid student begins
	t.Run("Begin", func(t *testing.T) {
		resp, err := post("/student/exams/begin", map[string]string{"exam_code": exam.AccessCode}, tokens[paidStudent])
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		raw := readBody(resp)
		if bytes.Contains([]byte(raw), []byte("correct_option")) {
			t.Fatal("answer key leaked to client")
		}
		var body struct {
			Data model.SessionDescriptor `json:"data"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		desc = body.Data
		if len(desc.Questions) != 4 {
			t.Fatalf("expected 4 questions, got %d", len(desc.Questions))
		}
	})

	// Step 3: Concurrent submits store exactly one score
	t.Run("ConcurrentSubmit", func(t *testing.T) {
		api := client.New(baseURL, tokens[paidStudent], nil)

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			ok, dupes int
			firstPct  float64
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(correct int) {
				defer wg.Done()
				req := model.SubmitExamRequest{TimeTakenMinutes: 3}
				for j, q := range desc.Questions {
					opt := j
					if j >= correct {
						opt = (j + 1) % 4
					}
					req.Answers = append(req.Answers, model.SubmittedAnswer{QuestionID: q.ID, SelectedOption: opt})
				}
				res, err := api.Submit(context.Background(), desc.ExamID, req)

				mu.Lock()
				defer mu.Unlock()
				var dup *apperr.AlreadySubmittedError
				switch {
				case err == nil:
					ok++
					firstPct = res.Percentage
				case errors.As(err, &dup):
					dupes++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i % 5)
		}
		wg.Wait()

		if ok != 1 || dupes != callers-1 {
			t.Fatalf("expected 1 success and %d duplicates, got %d and %d", callers-1, ok, dupes)
		}

		score, err := api.Score(context.Background(), desc.ExamID)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if score.Percentage != firstPct {
			t.Fatalf("stored %.2f, first response %.2f", score.Percentage, firstPct)
		}
	})

	// Step 4: Re-entry is blocked
	t.Run("BeginAgain", func(t *testing.T) {
		_, err := client.New(baseURL, tokens[paidStudent], nil).Begin(context.Background(), exam.AccessCode)
		if !errors.Is(err, apperr.ErrAlreadyTaken) {
			t.Fatalf("expected ALREADY_TAKEN, got %v", err)
		}
	})

	// Step 5: An expiring clock submits on its own
	t.Run("ClockExpiry", func(t *testing.T) {
		api := client.New(baseURL, tokens[clockStudent], nil)
		d, err := api.Begin(context.Background(), exam.AccessCode)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}

		sheet := attempt.NewAnswerSheet(d.Questions)
		for i, q := range d.Questions[:3] {
			if err := sheet.Select(q.ID, i); err != nil {
				t.Fatalf("select: %v", err)
			}
		}

		clock := attempt.NewClock(attempt.ClockConfig{
			ExamID:    d.ExamID,
			Duration:  2 * time.Second,
			Sheet:     sheet,
			Submitter: api,
		})
		clock.Start(context.Background())

		select {
		case <-clock.Done():
		case <-time.After(15 * time.Second):
			t.Fatal("clock did not finish")
		}

		out := clock.Outcome()
		if out.State != attempt.StateSubmitted || !out.AutoSubmitted {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		if out.Result.Percentage != 75 || out.Result.Status != model.ScoreStatusPassed {
			t.Fatalf("unexpected result: %+v", out.Result)
		}
	})
}

// Helpers

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return httpClient.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
