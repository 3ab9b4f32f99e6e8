package api

import (
	"net/http"

	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	sessionService service.SessionService,
	mediaService service.MediaService,
) {
	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService)
	sessionHandler := NewSessionHandler(sessionService)
	mediaHandler := NewMediaHandler(mediaService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			// POST /api/v1/plans - generate a draft plan from a profile
			planGroup.POST("", planHandler.GeneratePlan)
			// GET /api/v1/plans - all of the caller's plans
			planGroup.GET("", planHandler.GetPlans)
			// GET /api/v1/plans/active - the single active plan, if any
			planGroup.GET("/active", planHandler.GetActivePlan)
			// GET /api/v1/plans/active/today - today's workout (204 on rest days)
			planGroup.GET("/active/today", planHandler.TodayWorkout)
			// GET /api/v1/plans/active/workout?date=YYYY-MM-DD
			planGroup.GET("/active/workout", planHandler.WorkoutForDate)

			// Lifecycle transitions on a specific plan.
			planGroup.POST("/:planId/activate", planHandler.ActivatePlan)
			planGroup.POST("/:planId/pause", planHandler.PausePlan)
			planGroup.POST("/:planId/resume", planHandler.ResumePlan)
			planGroup.POST("/:planId/abandon", planHandler.AbandonPlan)
			planGroup.POST("/:planId/advance", planHandler.AdvanceDay)
			planGroup.POST("/:planId/adjust", planHandler.AdjustPlan)
			planGroup.POST("/:planId/complete-workout", planHandler.CompleteWorkout)
		}

		// --- Live Session Routes ---
		sessionGroup := protected.Group("/sessions")
		{
			// POST /api/v1/sessions - start from the active plan or ad hoc
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.GET("/:sessionId", sessionHandler.SessionStatus)
			sessionGroup.GET("/:sessionId/live", sessionHandler.LiveProgress)
			sessionGroup.POST("/:sessionId/join", sessionHandler.JoinSession)
			sessionGroup.POST("/:sessionId/leave", sessionHandler.LeaveSession)
			sessionGroup.POST("/:sessionId/pause", sessionHandler.PauseSession)
			sessionGroup.POST("/:sessionId/resume", sessionHandler.ResumeSession)
			sessionGroup.POST("/:sessionId/complete-activity", sessionHandler.CompleteActivity)
			sessionGroup.POST("/:sessionId/abandon", sessionHandler.AbandonSession)
		}

		// --- History & Recap Media Routes ---
		historyGroup := protected.Group("/history")
		{
			historyGroup.GET("", sessionHandler.History)
			historyGroup.POST("/:recordId/recap", mediaHandler.RequestUpload)
			historyGroup.GET("/:recordId/recap", mediaHandler.GetDownloadURL)
		}
	}
}
