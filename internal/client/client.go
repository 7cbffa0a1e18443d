// Package client talks to the exam API on behalf of one authenticated student
// and maps the response envelope back onto apperr kinds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/model"
)

const defaultTimeout = 10 * time.Second

// Client is a thin JSON client for the student exam routes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL (e.g. http://localhost:8080/api/v1).
// A nil httpClient gets a default with a 10s timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Begin asks the access gate for an attempt on examCode.
func (c *Client) Begin(ctx context.Context, examCode string) (*model.SessionDescriptor, error) {
	var desc model.SessionDescriptor
	err := c.do(ctx, http.MethodPost, "/student/exams/begin", model.BeginExamRequest{ExamCode: examCode}, &desc)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// Submit sends the final answers. A repeated submit yields an
// *apperr.AlreadySubmittedError holding the stored result.
func (c *Client) Submit(ctx context.Context, examID uuid.UUID, req model.SubmitExamRequest) (*model.ScoreResult, error) {
	var res model.ScoreResult
	if err := c.do(ctx, http.MethodPost, "/student/exams/"+examID.String()+"/submit", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Score fetches the stored score for examID.
func (c *Client) Score(ctx context.Context, examID uuid.UUID) (*model.Score, error) {
	var score model.Score
	if err := c.do(ctx, http.MethodGet, "/student/exams/"+examID.String()+"/score", nil, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperr.Transient(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return apperr.Transient(fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
		}
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if env.Error != nil || resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, &env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func decodeError(status int, env *envelope) error {
	if env.Error == nil {
		if status >= http.StatusInternalServerError {
			return apperr.Transient(fmt.Errorf("status %d", status))
		}
		return fmt.Errorf("%w: status %d", apperr.ErrInternal, status)
	}

	code := env.Error.Code
	if code == apperr.ErrAlreadySubmitted.Code {
		var existing model.ScoreResult
		if len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &existing); err == nil {
				return &apperr.AlreadySubmittedError{Existing: &existing}
			}
		}
		return &apperr.AlreadySubmittedError{}
	}

	sentinel := apperr.FromCode(code)
	if sentinel == apperr.ErrInternal && status >= http.StatusBadGateway {
		return apperr.Transient(fmt.Errorf("%s (status %d)", env.Error.Message, status))
	}
	if sentinel == apperr.ErrTransient {
		return apperr.Transient(errors.New(env.Error.Message))
	}
	return fmt.Errorf("%w: %s", sentinel, env.Error.Message)
}
