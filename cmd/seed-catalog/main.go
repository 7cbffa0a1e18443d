package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/database"
	"github.com/stemsi/exam-portal/internal/logger"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/repository"
	"github.com/stemsi/exam-portal/internal/service"
)

func main() {
	var (
		examFile string
		students string
		payment  string
	)
	flag.StringVar(&examFile, "exam", "seed/exam.sample.json", "Exam JSON file (model.Exam shape, answer key included)")
	flag.StringVar(&students, "students", "1,2,3", "Comma-separated student ids to enroll in the exam's course")
	flag.StringVar(&payment, "payment", string(model.PaymentStatusPaid), "Payment status for the enrolled students: unpaid, partial, paid")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	status := model.PaymentStatus(payment)
	switch status {
	case model.PaymentStatusUnpaid, model.PaymentStatusPartial, model.PaymentStatusPaid:
	default:
		log.Fatal().Str("payment", payment).Msg("Unknown payment status")
	}

	studentIDs, err := parseIDs(students)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -students")
	}

	exam, err := loadExam(examFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", examFile).Msg("Failed to load exam")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	authService := service.NewAuthService(cfg)

	fmt.Printf("=== Seeding exam %q (%d questions) ===\n", exam.Title, len(exam.Questions))

	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam %s with access code %s\n", exam.ID, exam.AccessCode)

	for _, id := range studentIDs {
		err := enrollmentRepo.Upsert(ctx, &model.Enrollment{
			StudentID:     id,
			CourseID:      exam.CourseID,
			PaymentStatus: status,
		})
		if err != nil {
			fmt.Printf("Error enrolling student %d: %v\n", id, err)
			continue
		}

		token, err := authService.GenerateStudentToken(id)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign token")
		}
		fmt.Printf("Student %d (%s): %s\n", id, status, token)
	}

	fmt.Println("\nSeed completed! The server prewarms the catalog cache on its next start.")
}

func loadExam(path string) (*model.Exam, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var exam model.Exam
	if err := json.Unmarshal(raw, &exam); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if exam.CourseID == uuid.Nil {
		exam.CourseID = uuid.New()
	}
	if strings.TrimSpace(exam.AccessCode) == "" {
		return nil, fmt.Errorf("access_code is required")
	}
	if exam.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration_minutes must be positive")
	}
	if exam.PassingScore < 0 || exam.PassingScore > 100 {
		return nil, fmt.Errorf("passing_score must be within 0-100")
	}
	if len(exam.Questions) == 0 {
		return nil, fmt.Errorf("questions must not be empty")
	}
	for i, q := range exam.Questions {
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return nil, fmt.Errorf("question %d: correct_option out of range", i+1)
		}
		if q.OrderNum == 0 {
			exam.Questions[i].OrderNum = i + 1
		}
	}
	return &exam, nil
}

func parseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("bad student id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
