package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/middleware"
	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
)

// Handlers groups every handler registered on the API.
type Handlers struct {
	Auth         *AuthHandler
	Division     *DivisionHandler
	Enrollment   *EnrollmentHandler
	Guide        *GuideHandler
	Group        *GroupHandler
	Evaluation   *EvaluationHandler
	Announcement *AnnouncementHandler
	Schedule     *ScheduleHandler
	Report       *ReportHandler
}

// RegisterRoutes wires the /api/v1 surface onto the router.
func RegisterRoutes(r *gin.Engine, h Handlers, tokens *service.TokenService) {
	api := r.Group("/api/v1")

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	guideOnly := middleware.RequireRoles(models.RoleGuide)
	anyActor := middleware.RequireRoles(models.RoleAdmin, models.RoleGuide)

	// public
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/guides/register", h.Guide.Register)
	api.POST("/guides/login", h.Guide.Login)
	api.POST("/guides/forgot-password", h.Guide.ForgotPassword)
	api.POST("/guides/reset-password", h.Guide.ResetPassword)
	api.GET("/reports/download/:token", h.Report.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.POST("/auth/change-password", adminOnly, h.Auth.ChangePassword)
	secured.POST("/guides/change-password", guideOnly, h.Guide.ChangePassword)

	secured.GET("/guides", adminOnly, h.Guide.List)
	secured.GET("/guides/active", anyActor, h.Guide.ListActive)
	secured.POST("/guides", adminOnly, h.Guide.Create)
	secured.PATCH("/guides/:id", adminOnly, h.Guide.Update)
	secured.PATCH("/guides/:id/status", adminOnly, h.Guide.SetStatus)
	secured.PATCH("/guides/:id/active", middleware.RBAC(string(models.RoleAdmin), middleware.AllowSelf), h.Guide.SetAvailability)
	secured.GET("/guides/:id/groups", middleware.RBAC(string(models.RoleAdmin), middleware.AllowSelf), h.Guide.AssignedGroups)
	secured.DELETE("/guides/:id", adminOnly, h.Guide.Delete)

	secured.GET("/divisions", adminOnly, h.Division.List)
	secured.POST("/divisions", adminOnly, h.Division.Create)
	secured.PATCH("/divisions/:id/status", adminOnly, h.Division.ToggleStatus)
	secured.DELETE("/divisions/:id", adminOnly, h.Division.Delete)

	secured.GET("/enrollments", adminOnly, h.Enrollment.List)
	secured.POST("/enrollments", adminOnly, h.Enrollment.Create)
	secured.POST("/enrollments/generate", adminOnly, h.Enrollment.Generate)
	secured.GET("/enrollments/division/:divisionId", adminOnly, h.Enrollment.ListByDivision)
	secured.DELETE("/enrollments/division/:divisionId", adminOnly, h.Enrollment.DeleteByDivision)
	secured.DELETE("/enrollments/:id", adminOnly, h.Enrollment.Delete)

	secured.GET("/students", adminOnly, h.Enrollment.ListStudents)
	secured.GET("/students/available", adminOnly, h.Enrollment.ListAvailableStudents)

	secured.GET("/groups", adminOnly, h.Group.List)
	secured.POST("/groups", adminOnly, h.Group.Create)
	secured.GET("/groups/:id", adminOnly, h.Group.Get)
	secured.PUT("/groups/:id", adminOnly, h.Group.Update)
	secured.DELETE("/groups/:id", adminOnly, h.Group.Delete)
	secured.GET("/groups/:id/students/available", adminOnly, h.Group.AvailableStudents)

	secured.GET("/evaluation-parameters", adminOnly, h.Evaluation.ListParameters)
	secured.POST("/evaluation-parameters", adminOnly, h.Evaluation.CreateParameter)
	secured.PUT("/evaluation-parameters/:id", adminOnly, h.Evaluation.UpdateParameter)
	secured.DELETE("/evaluation-parameters/:id", adminOnly, h.Evaluation.DeleteParameter)

	secured.GET("/project-evaluations", adminOnly, h.Evaluation.ListAll)
	secured.GET("/project-evaluations/:projectId", adminOnly, h.Evaluation.ListByProject)
	secured.PUT("/project-evaluations/:projectId/:parameterId", adminOnly, h.Evaluation.UpsertMark)

	secured.GET("/course-announcements", anyActor, h.Announcement.ListCourse)
	secured.POST("/course-announcements", adminOnly, h.Announcement.CreateCourse)
	secured.PUT("/course-announcements/:id", adminOnly, h.Announcement.UpdateCourse)
	secured.DELETE("/course-announcements/:id", adminOnly, h.Announcement.DeleteCourse)

	secured.GET("/guide-announcements", anyActor, h.Announcement.ListGuide)
	secured.POST("/guide-announcements", adminOnly, h.Announcement.CreateGuide)
	secured.PUT("/guide-announcements/:id", adminOnly, h.Announcement.UpdateGuide)
	secured.DELETE("/guide-announcements/:id", adminOnly, h.Announcement.DeleteGuide)

	secured.GET("/reports/evaluations", adminOnly, h.Report.Generate)

	secured.GET("/exam-schedules", anyActor, h.Schedule.List)
	secured.POST("/exam-schedules", adminOnly, h.Schedule.Create)
	secured.PUT("/exam-schedules/:id", adminOnly, h.Schedule.Update)
	secured.DELETE("/exam-schedules/:id", adminOnly, h.Schedule.Delete)
}
