package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- Request Structs ---

type StartSessionRequest struct {
	// FromPlan starts today's scheduled workout; otherwise WorkoutType
	// and Activities describe an ad-hoc session.
	FromPlan        bool              `json:"fromPlan"`
	WorkoutType     string            `json:"workoutType"`
	Activities      []domain.Activity `json:"activities"`
	OwnerName       string            `json:"ownerName" binding:"required"`
	IsMultiplayer   bool              `json:"isMultiplayer"`
	MaxParticipants int               `json:"maxParticipants" binding:"omitempty,min=2,max=16"`
	AllowSpectators bool              `json:"allowSpectators"`
}

type JoinSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

type AbandonSessionRequest struct {
	Reason string `json:"reason"`
}

type CompleteActivityRequest struct {
	DurationSeconds int                `json:"durationSeconds" binding:"omitempty,min=0"`
	Metrics         map[string]float64 `json:"metrics"`
	Notes           string             `json:"notes"`
}

// --- Handler Methods ---

// StartSession godoc
// @Summary Start a live workout session
// @Description Starts today's plan workout or an ad-hoc session and spawns its actor.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body StartSessionRequest true "Session parameters"
// @Success 201 {object} domain.WorkoutSession
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "No active plan / no workout today"
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var snapshot *domain.WorkoutSession
	if req.FromPlan {
		snapshot, err = h.sessionService.StartFromPlan(c.Request.Context(), userID, req.OwnerName, req.IsMultiplayer, req.MaxParticipants)
	} else {
		snapshot, err = h.sessionService.StartAdHoc(c.Request.Context(), userID, req.OwnerName, service.StartSessionInput{
			WorkoutType:     req.WorkoutType,
			Activities:      req.Activities,
			IsMultiplayer:   req.IsMultiplayer,
			MaxParticipants: req.MaxParticipants,
			AllowSpectators: req.AllowSpectators,
		})
	}
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// JoinSession godoc
// @Summary Join a multiplayer session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body JoinSessionRequest true "Participant name"
// @Success 200 {object} domain.WorkoutSession
// @Failure 409 {object} gin.H "Single-player, full, or terminal session"
// @Router /sessions/{sessionId}/join [post]
func (h *SessionHandler) JoinSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	snapshot, err := h.sessionService.Join(c.Request.Context(), c.Param("sessionId"), userID, req.Name)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// LeaveSession godoc
// @Summary Leave a session
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Router /sessions/{sessionId}/leave [post]
func (h *SessionHandler) LeaveSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	snapshot, err := h.sessionService.Leave(c.Request.Context(), c.Param("sessionId"), userID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// PauseSession godoc
// @Summary Pause the session
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Router /sessions/{sessionId}/pause [post]
func (h *SessionHandler) PauseSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	snapshot, err := h.sessionService.Pause(c.Request.Context(), c.Param("sessionId"), userID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ResumeSession godoc
// @Summary Resume a paused session
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Router /sessions/{sessionId}/resume [post]
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	snapshot, err := h.sessionService.Resume(c.Request.Context(), c.Param("sessionId"), userID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// CompleteActivity godoc
// @Summary Record one finished activity
// @Description Advances the session's activity pointer; finishing the last activity completes the session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body CompleteActivityRequest true "Performance data"
// @Success 200 {object} domain.WorkoutSession
// @Router /sessions/{sessionId}/complete-activity [post]
func (h *SessionHandler) CompleteActivity(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	var req CompleteActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	snapshot, err := h.sessionService.CompleteActivity(c.Request.Context(), c.Param("sessionId"), userID, domain.PerformanceRecord{
		DurationSeconds: req.DurationSeconds,
		Metrics:         req.Metrics,
		Notes:           req.Notes,
	})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// AbandonSession godoc
// @Summary Abandon the session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param body body AbandonSessionRequest false "Reason"
// @Success 200 {object} domain.WorkoutSession
// @Router /sessions/{sessionId}/abandon [post]
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	var req AbandonSessionRequest
	_ = c.ShouldBindJSON(&req) // body optional
	snapshot, err := h.sessionService.Abandon(c.Request.Context(), c.Param("sessionId"), userID, req.Reason)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// SessionStatus godoc
// @Summary Get the session snapshot
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Failure 404 {object} gin.H "No live session with that id"
// @Router /sessions/{sessionId} [get]
func (h *SessionHandler) SessionStatus(c *gin.Context) {
	snapshot, err := h.sessionService.Status(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// LiveProgress godoc
// @Summary Stream live progress updates
// @Description Server-sent events with one JSON LiveProgress object per accepted session command.
// @Tags Sessions
// @Produce text/event-stream
// @Param sessionId path string true "Session ID"
// @Router /sessions/{sessionId}/live [get]
func (h *SessionHandler) LiveProgress(c *gin.Context) {
	ch, cancel, err := h.sessionService.SubscribeProgress(c.Param("sessionId"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case progress, ok := <-ch:
			if !ok {
				return false // session ended
			}
			c.SSEvent("progress", progress)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// History godoc
// @Summary List completed workouts
// @Tags Sessions
// @Produce json
// @Success 200 {array} domain.CompletedWorkout
// @Router /history [get]
func (h *SessionHandler) History(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	records, err := h.sessionService.History(c.Request.Context(), userID, 50)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load workout history")
		return
	}
	c.JSON(http.StatusOK, records)
}

// writeSessionError maps session service/domain errors onto HTTP statuses.
func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrNoActivePlan), errors.Is(err, service.ErrNoWorkoutToday):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionOwnerOnly):
		abortWithError(c, http.StatusForbidden, err.Error())
	case domain.IsKind(err, domain.KindState), domain.IsKind(err, domain.KindConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case domain.IsKind(err, domain.KindValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case domain.IsKind(err, domain.KindNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
