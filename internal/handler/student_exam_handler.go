package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/apperr"
	"github.com/stemsi/exam-portal/internal/middleware"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/service"
	"github.com/stemsi/exam-portal/internal/validator"
)

// StudentExamHandler handles the attempt endpoints: begin, submit and score lookup.
type StudentExamHandler struct {
	gate       *service.AccessGateService
	submission *service.SubmissionService
	log        zerolog.Logger
}

// NewStudentExamHandler creates a new StudentExamHandler.
func NewStudentExamHandler(
	gate *service.AccessGateService,
	submission *service.SubmissionService,
	log zerolog.Logger,
) *StudentExamHandler {
	return &StudentExamHandler{
		gate:       gate,
		submission: submission,
		log:        log.With().Str("component", "student_exam_handler").Logger(),
	}
}

// BeginExam godoc
// POST /api/v1/student/exams/begin
// Authorizes an attempt and returns the exam without its answer key.
func (h *StudentExamHandler) BeginExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BeginExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	desc, err := h.gate.Begin(c.Request.Context(), claims.UserID, req.ExamCode)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, desc)
}

// SubmitExam godoc
// POST /api/v1/student/exams/:exam_id/submit
// Grades the answers and stores the score once. A repeated submit returns
// ALREADY_SUBMITTED with the stored result in data.
func (h *StudentExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submission.Submit(c.Request.Context(), claims.UserID, examID, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetScore godoc
// GET /api/v1/student/exams/:exam_id/score
// Returns the caller's stored score, e.g. after a lost submit response.
func (h *StudentExamHandler) GetScore(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	score, err := h.submission.GetScore(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, score)
}

// fail maps a service error onto the response envelope.
func (h *StudentExamHandler) fail(c *gin.Context, err error) {
	var dup *apperr.AlreadySubmittedError
	if errors.As(err, &dup) {
		response.FailWithData(c, apperr.ErrAlreadySubmitted.Status, response.ErrAlreadySubmitted, dup.Existing)
		return
	}

	ae := apperr.As(err)
	if ae == nil || ae.Kind == apperr.KindInternal {
		h.log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if ae.Kind == apperr.KindTransient {
		h.log.Warn().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Transient failure")
	}

	response.Fail(c, ae.Status, response.ErrCode(ae.Code))
}
