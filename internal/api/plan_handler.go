package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"peakform/coach-app/internal/coach"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request Structs ---

type GeneratePlanRequest struct {
	Title        string   `json:"title" binding:"required"`
	WorkoutType  string   `json:"workoutType" binding:"required"`
	Weeks        int      `json:"weeks" binding:"required,min=1,max=52"`
	BaseLoad     float64  `json:"baseLoad" binding:"omitempty,min=0"`
	FitnessLevel string   `json:"fitnessLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
	GoalPrimary  string   `json:"goalPrimary" binding:"omitempty"`
	DaysPerWeek  int      `json:"daysPerWeek" binding:"omitempty,min=1,max=7"`
	Equipment    []string `json:"equipment"`
	Injuries     []string `json:"injuries"`

	Progression domain.ProgressionStrategy `json:"progression"`
}

type PausePlanRequest struct {
	Reason string `json:"reason"`
}

type AdjustPlanRequest struct {
	TooHard           bool    `json:"tooHard"`
	TooEasy           bool    `json:"tooEasy"`
	Notes             string  `json:"notes"`
	RecentPerformance float64 `json:"recentPerformance" binding:"min=0,max=1"`
}

type CompleteWorkoutRequest struct {
	WorkoutID string `json:"workoutId" binding:"required"`
	RecordID  string `json:"recordId" binding:"required"`
}

// --- Handler Methods ---

// GeneratePlan godoc
// @Summary Generate a draft workout plan
// @Description Builds a multi-week draft plan for the authenticated user via the coach generator.
// @Tags Plans
// @Accept json
// @Produce json
// @Param plan body GeneratePlanRequest true "Plan parameters"
// @Success 201 {object} domain.WorkoutPlan
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /plans [post]
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile := coach.Profile{
		UserID:       userID,
		FitnessLevel: req.FitnessLevel,
		Goals:        domain.Goals{Primary: req.GoalPrimary},
		Constraints: domain.Constraints{
			Equipment:   req.Equipment,
			Injuries:    req.Injuries,
			DaysPerWeek: req.DaysPerWeek,
		},
	}
	template := coach.PlanTemplate{
		Title:       req.Title,
		WorkoutType: req.WorkoutType,
		Weeks:       req.Weeks,
		BaseLoad:    req.BaseLoad,
		Progression: req.Progression,
	}

	plan, err := h.planService.GeneratePlan(c.Request.Context(), profile, template)
	if err != nil {
		if domain.IsKind(err, domain.KindValidation) || domain.IsKind(err, domain.KindConflict) || errors.Is(err, service.ErrPlanGeneration) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate plan")
		}
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetPlans godoc
// @Summary List the user's workout plans
// @Tags Plans
// @Produce json
// @Success 200 {array} domain.WorkoutPlan
// @Router /plans [get]
func (h *PlanHandler) GetPlans(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	plans, err := h.planService.GetPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetActivePlan godoc
// @Summary Get the user's active plan
// @Tags Plans
// @Produce json
// @Success 200 {object} domain.WorkoutPlan
// @Failure 404 {object} gin.H "No active plan"
// @Router /plans/active [get]
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load active plan")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// TodayWorkout godoc
// @Summary Get today's scheduled workout
// @Description Resolves the workout at the active plan's position cursor. Responds 204 on a rest day.
// @Tags Plans
// @Produce json
// @Success 200 {object} domain.WorkoutTemplate
// @Success 204 "Rest day"
// @Failure 404 {object} gin.H "No active plan"
// @Router /plans/active/today [get]
func (h *PlanHandler) TodayWorkout(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	workout, err := h.planService.TodayWorkout(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve today's workout")
		}
		return
	}
	if workout == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// WorkoutForDate godoc
// @Summary Get the workout scheduled on a date
// @Tags Plans
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} domain.WorkoutTemplate
// @Success 204 "Rest day"
// @Router /plans/active/workout [get]
func (h *PlanHandler) WorkoutForDate(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'date' must be YYYY-MM-DD")
		return
	}
	workout, err := h.planService.WorkoutForDate(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve workout for date")
		}
		return
	}
	if workout == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// ActivatePlan godoc
// @Summary Activate a draft plan
// @Tags Plans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.WorkoutPlan
// @Failure 409 {object} gin.H "State error or an active plan already exists"
// @Router /plans/{planId}/activate [post]
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.ActivatePlan(c.Request.Context(), userID, planID)
	})
}

// PausePlan godoc
// @Summary Pause an active plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param body body PausePlanRequest false "Pause reason"
// @Success 200 {object} domain.WorkoutPlan
// @Router /plans/{planId}/pause [post]
func (h *PlanHandler) PausePlan(c *gin.Context) {
	var req PausePlanRequest
	_ = c.ShouldBindJSON(&req) // body optional
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.PausePlan(c.Request.Context(), userID, planID, req.Reason)
	})
}

// ResumePlan godoc
// @Summary Resume a paused plan
// @Tags Plans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.WorkoutPlan
// @Router /plans/{planId}/resume [post]
func (h *PlanHandler) ResumePlan(c *gin.Context) {
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.ResumePlan(c.Request.Context(), userID, planID)
	})
}

// AbandonPlan godoc
// @Summary Abandon a plan
// @Tags Plans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.WorkoutPlan
// @Router /plans/{planId}/abandon [post]
func (h *PlanHandler) AbandonPlan(c *gin.Context) {
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.AbandonPlan(c.Request.Context(), userID, planID)
	})
}

// AdvanceDay godoc
// @Summary Advance the plan's position cursor one day
// @Tags Plans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.WorkoutPlan
// @Router /plans/{planId}/advance [post]
func (h *PlanHandler) AdvanceDay(c *gin.Context) {
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.AdvanceDay(c.Request.Context(), userID, planID)
	})
}

// AdjustPlan godoc
// @Summary Adjust remaining workouts from feedback
// @Tags Plans
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param body body AdjustPlanRequest true "Feedback"
// @Success 200 {object} domain.WorkoutPlan
// @Router /plans/{planId}/adjust [post]
func (h *PlanHandler) AdjustPlan(c *gin.Context) {
	var req AdjustPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		feedback := coach.Feedback{TooHard: req.TooHard, TooEasy: req.TooEasy, Notes: req.Notes}
		return h.planService.AdjustPlan(c.Request.Context(), userID, planID, feedback, req.RecentPerformance)
	})
}

// CompleteWorkout godoc
// @Summary Mark a plan workout complete
// @Description Links the workout slot to its durable completed-workout record.
// @Tags Plans
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Param body body CompleteWorkoutRequest true "Workout and record ids"
// @Success 200 {object} domain.WorkoutPlan
// @Failure 404 {object} gin.H "Workout not in plan"
// @Failure 409 {object} gin.H "Workout already completed or skipped"
// @Router /plans/{planId}/complete-workout [post]
func (h *PlanHandler) CompleteWorkout(c *gin.Context) {
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(req.RecordID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	h.lifecycle(c, func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
		return h.planService.CompleteWorkout(c.Request.Context(), userID, planID, workoutID, recordID)
	})
}

// lifecycle is the shared parse-call-respond path for plan commands
// addressed by path id.
func (h *PlanHandler) lifecycle(c *gin.Context, call func(userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	plan, err := call(userID, planID)
	if err != nil {
		writePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// writePlanError maps service/domain errors onto HTTP statuses.
func writePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrWorkoutNotInPlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrActivePlanExists), errors.Is(err, service.ErrPlanConflict):
		abortWithError(c, http.StatusConflict, err.Error())
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
