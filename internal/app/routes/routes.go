package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/thapar/projectportal/internal/app/controllers"
	"github.com/thapar/projectportal/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	profileController *controllers.ProfileController,
	projectController *controllers.ProjectController,
	notificationController *controllers.NotificationController,
	searchController *controllers.SearchController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/verify-otp", authController.VerifyOTP)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/reset-password", authController.ResetPassword)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		// Own profile
		users := authenticated.Group("/users")
		{
			users.GET("/me", profileController.GetMyProfile)
			users.PUT("/me", profileController.UpdateMyProfile)
			users.PUT("/me/profile-photo", profileController.UpdateProfilePhoto)
			users.DELETE("/me/profile-photo", profileController.DeleteProfilePhoto)
		}

		// Projects and team membership
		projects := authenticated.Group("/projects")
		{
			projects.GET("", projectController.ListProjects)
			projects.POST("", projectController.CreateProject)
			projects.GET("/:id", projectController.GetProjectByID)
			projects.PUT("/:id", projectController.UpdateProject)
			projects.DELETE("/:id", projectController.DeleteProject)

			projects.POST("/:id/approve", projectController.ApproveProject)
			projects.POST("/:id/reject", projectController.RejectProject)
			projects.PUT("/:id/status", projectController.UpdateProjectStatus)

			projects.POST("/:id/team", projectController.AddTeamMember)
			projects.DELETE("/:id/team/:memberId", projectController.RemoveTeamMember)
		}

		// Notifications
		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationController.ListNotifications)
			notifications.PUT("/:id/read", notificationController.MarkNotificationRead)
			notifications.PUT("/read-all", notificationController.MarkAllNotificationsRead)
		}

		// Directory search
		search := authenticated.Group("/search")
		{
			search.GET("/teachers", searchController.SearchTeachers)
			search.GET("/students", searchController.SearchStudents)
			search.GET("/suggestions", searchController.Suggestions)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
