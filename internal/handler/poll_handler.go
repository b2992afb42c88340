package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/model"
	"github.com/classpulse/classpulse-backend/internal/response"
	"github.com/classpulse/classpulse-backend/internal/service"
	"github.com/classpulse/classpulse-backend/internal/validator"
)

// PollHandler exposes the poll REST surface: creation, snapshots, the
// question lifecycle, the roster and result queries.
type PollHandler struct {
	pollService *service.PollService
	coordinator *service.Coordinator
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(pollService *service.PollService, coordinator *service.Coordinator) *PollHandler {
	return &PollHandler{pollService: pollService, coordinator: coordinator}
}

// failDomain maps typed service failures onto the response envelope.
func failDomain(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		ce *service.ConflictError
		ne *service.NotFoundError
		pe *service.PreconditionError
	)
	switch {
	case errors.As(err, &ve):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, ve.Msg)
	case errors.As(err, &ce):
		response.FailWithMessage(c, http.StatusConflict, response.ErrConflict, ce.Msg)
	case errors.As(err, &ne):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, ne.Msg)
	case errors.As(err, &pe):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrPreconditionFailed, pe.Msg)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func parseID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreatePoll godoc
// POST /api/v1/polls
// Creates a new poll.
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var req model.CreatePollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	poll, err := h.pollService.Create(c.Request.Context(), req.Title)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"poll": poll.View()})
}

// GetPoll godoc
// GET /api/v1/polls/:id
// Returns the sanitized poll snapshot.
func (h *PollHandler) GetPoll(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	poll, err := h.pollService.Get(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"poll": poll.View()})
}

// AskQuestion godoc
// POST /api/v1/polls/:id/questions
// Starts a new question; fails while the previous one is still live.
func (h *PollHandler) AskQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.AskQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.coordinator.StartQuestion(
		c.Request.Context(), id,
		req.Text, req.Options, *req.CorrectAnswerIndex, req.TimeLimitSec,
	)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question.View()})
}

// JoinPoll godoc
// POST /api/v1/polls/join
// Registers a student on the poll roster.
func (h *PollHandler) JoinPoll(c *gin.Context) {
	var req model.JoinPollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pollID, err := primitive.ObjectIDFromHex(req.PollID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	poll, studentID, err := h.coordinator.JoinPoll(c.Request.Context(), pollID, req.StudentID, req.Name)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"poll":      poll.View(),
		"studentId": studentID,
		"name":      req.Name,
	})
}

// SubmitAnswer godoc
// POST /api/v1/polls/submit-answer
// Records the student's answer to the active question.
func (h *PollHandler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pollID, err := primitive.ObjectIDFromHex(req.PollID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.coordinator.SubmitAnswer(c.Request.Context(), pollID, req.StudentName, *req.AnswerIndex)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// RemoveStudent godoc
// POST /api/v1/polls/remove-student
// Removes a participant from the roster (teacher action).
func (h *PollHandler) RemoveStudent(c *gin.Context) {
	var req model.RemoveParticipantRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pollID, err := primitive.ObjectIDFromHex(req.PollID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	participants, err := h.coordinator.RemoveParticipant(c.Request.Context(), pollID, req.StudentID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participants": participants})
}

// LiveResult godoc
// GET /api/v1/polls/:id/live-result
// Tallies the active (or most recent) question.
func (h *PollHandler) LiveResult(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.coordinator.LiveResult(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// QuestionResults godoc
// GET /api/v1/polls/:id/results/:question_id
// Tallies one historical question.
func (h *PollHandler) QuestionResults(c *gin.Context) {
	pollID, ok := parseID(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "question_id")
	if !ok {
		return
	}

	result, err := h.coordinator.QuestionResult(c.Request.Context(), pollID, questionID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetHistory godoc
// GET /api/v1/polls/:id/history
// Lists ended questions with resolved answers and per-question tallies.
func (h *PollHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	history, err := h.pollService.History(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}
