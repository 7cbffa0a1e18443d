package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/attempt"
	"github.com/stemsi/exam-portal/internal/client"
	"github.com/stemsi/exam-portal/internal/logger"
	"github.com/stemsi/exam-portal/internal/model"
	"golang.org/x/term"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
)

func main() {
	var (
		apiURL   string
		examCode string
		logLevel string
	)
	flag.StringVar(&apiURL, "api", "http://localhost:8080/api/v1", "Exam API base URL")
	flag.StringVar(&examCode, "code", "", "Exam access code")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level for the session clock")
	flag.Parse()

	if examCode == "" {
		errColor.Fprintln(os.Stderr, "-code is required")
		os.Exit(2)
	}

	token, err := readToken()
	if err != nil {
		errColor.Fprintf(os.Stderr, "Could not read token: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api := client.New(apiURL, token, nil)

	desc, err := api.Begin(ctx, examCode)
	if err != nil {
		errColor.Fprintf(os.Stderr, "Cannot start exam: %s\n", describe(err))
		os.Exit(1)
	}

	if err := checkPaper(desc); err != nil {
		errColor.Fprintf(os.Stderr, "Cannot start exam: %s\n", err)
		os.Exit(1)
	}

	sheet := attempt.NewAnswerSheet(desc.Questions)
	s := &session{desc: desc, sheet: sheet}

	clock := attempt.NewClock(attempt.ClockConfig{
		ExamID:    desc.ExamID,
		Duration:  time.Duration(desc.DurationMinutes) * time.Minute,
		Sheet:     sheet,
		Submitter: api,
		OnTick:    announceRemaining,
		Log:       logger.New(os.Stderr, logLevel, "pretty"),
	})

	titleColor.Printf("%s\n", desc.Title)
	fmt.Printf("%d questions, %d minutes, pass mark %.2f%%\n", len(desc.Questions), desc.DurationMinutes, desc.PassingScore)
	fmt.Println("Commands: <n> show question n, <letter> answer current question, list, submit, quit")
	s.show(0)

	clock.Start(ctx)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-clock.Done():
			os.Exit(report(clock.Outcome()))

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			switch cmd := strings.ToLower(strings.TrimSpace(line)); {
			case cmd == "":
			case cmd == "submit":
				if n := sheet.UnansweredCount(); n > 0 {
					warnColor.Printf("%d question(s) unanswered, submitting anyway\n", n)
				}
				if err := clock.Submit(); err != nil {
					warnColor.Println("Submission already in progress")
				}
			case cmd == "quit":
				warnColor.Println("Leaving without submitting, this attempt is lost")
				clock.Stop()
			case cmd == "list":
				s.list()
			default:
				s.handle(cmd)
			}
		}
	}
}

// checkPaper rejects a descriptor the command loop cannot present.
func checkPaper(desc *model.SessionDescriptor) error {
	if len(desc.Questions) == 0 {
		return errors.New("exam has no questions, contact your teacher")
	}
	return nil
}

type session struct {
	desc    *model.SessionDescriptor
	sheet   *attempt.AnswerSheet
	current int
}

func (s *session) handle(cmd string) {
	if n, err := strconv.Atoi(cmd); err == nil {
		if n < 1 || n > len(s.desc.Questions) {
			warnColor.Printf("No question %d\n", n)
			return
		}
		s.show(n - 1)
		return
	}

	if len(cmd) == 1 && cmd[0] >= 'a' && cmd[0] <= 'z' {
		q := s.desc.Questions[s.current]
		if err := s.sheet.Select(q.ID, int(cmd[0]-'a')); err != nil {
			warnColor.Printf("Invalid option %q\n", cmd)
			return
		}
		if s.current+1 < len(s.desc.Questions) {
			s.show(s.current + 1)
		} else {
			fmt.Printf("Answered. %d unanswered. Type submit when done.\n", s.sheet.UnansweredCount())
		}
		return
	}

	warnColor.Printf("Unknown command %q\n", cmd)
}

func (s *session) show(i int) {
	if i < 0 || i >= len(s.desc.Questions) {
		return
	}
	s.current = i
	q := s.desc.Questions[i]
	titleColor.Printf("\n[%d/%d] %s\n", i+1, len(s.desc.Questions), q.Text)
	selected, answered := s.sheet.Selected(q.ID)
	for j, opt := range q.Options {
		marker := " "
		if answered && selected == j {
			marker = "*"
		}
		fmt.Printf(" %s %c) %s\n", marker, 'a'+j, opt)
	}
}

func (s *session) list() {
	for i, q := range s.desc.Questions {
		if opt, ok := s.sheet.Selected(q.ID); ok {
			fmt.Printf("%3d: %c\n", i+1, 'a'+opt)
		} else {
			warnColor.Printf("%3d: -\n", i+1)
		}
	}
}

func announceRemaining(remaining time.Duration) {
	switch {
	case remaining == 5*time.Minute, remaining == time.Minute:
		warnColor.Printf("\n%s remaining\n", remaining)
	case remaining <= 10*time.Second:
		errColor.Printf("\n%s remaining\n", remaining)
	}
}

func report(out attempt.Outcome) int {
	switch out.State {
	case attempt.StateSubmitted:
		if out.AutoSubmitted {
			warnColor.Println("\nTime is up. Your answers were submitted automatically.")
		}
		if out.AlreadySubmitted {
			warnColor.Println("A score was already recorded for this exam:")
		}
		if out.Result == nil {
			successColor.Println("Submitted.")
			return 0
		}
		c := successColor
		if out.Result.Status != model.ScoreStatusPassed {
			c = errColor
		}
		c.Printf("Score %d/%d (%.2f%%): %s\n",
			out.Result.Score, out.Result.TotalQuestions, out.Result.Percentage, strings.ToUpper(string(out.Result.Status)))
		return 0
	case attempt.StateFailed:
		errColor.Printf("\n%s\n", describe(out.Err))
		return 1
	default:
		return 130
	}
}

func describe(err error) string {
	if errors.Is(err, attempt.ErrSubmissionFailed) {
		return "Submission failed, contact support. Your answers could not be recorded."
	}
	if ae := apperr.As(err); ae != nil {
		return fmt.Sprintf("%s (%s)", ae.Message, ae.Code)
	}
	return err.Error()
}

// readToken prefers EXAM_TOKEN and otherwise prompts without echo.
func readToken() (string, error) {
	if tok := strings.TrimSpace(os.Getenv("EXAM_TOKEN")); tok != "" {
		return tok, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("set EXAM_TOKEN when stdin is not a terminal")
	}

	fmt.Print("Access token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return "", errors.New("empty token")
	}
	return tok, nil
}
