package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/in-nis/classplan/docs"
	"github.com/in-nis/classplan/internal/auth"
	"github.com/in-nis/classplan/internal/config"
	"github.com/in-nis/classplan/internal/excel"
	"github.com/in-nis/classplan/internal/extract"
	"github.com/in-nis/classplan/internal/metrics"
	"github.com/in-nis/classplan/internal/service"
)

type Deps struct {
	Config    *config.Config
	Service   *service.Service
	Health    func(ctx context.Context) error
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
	Excel     *excel.Parser
	Extractor *extract.Client
}

type Handler struct {
	svc       *service.Service
	excel     *excel.Parser
	extractor *extract.Client
	log       *logrus.Logger
}

// @title           classplan API
// @version         1.0
// @description     Shared class timetables and lesson notes.
// @host            localhost:8000
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(d Deps) *gin.Engine {
	h := &Handler{svc: d.Service, excel: d.Excel, extractor: d.Extractor, log: d.Logger}
	verifier := auth.NewVerifier(d.Config.JWTSecret, d.Config.AuthIssuer)

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(d.Logger), observe(d.Metrics))

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		if err := d.Health(c.Request.Context()); err != nil {
			d.Logger.WithError(err).Error("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_ping_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if d.Config.WebhookSecret != "" {
		r.POST("/webhooks/auth", auth.WebhookHandler(d.Config.WebhookSecret, verifier, d.Service, d.Logger, fail))
	} else {
		d.Logger.Warn("WEBHOOK_SECRET not set, auth webhook disabled")
	}

	v1 := r.Group("/api/v1")
	v1.GET("/invitations/check/:code", verifier.OptionalMiddleware(), h.optionalUser(), h.CheckInvitation)

	authed := v1.Group("")
	authed.Use(verifier.Middleware(fail))
	authed.GET("/me", h.requireUser(true), h.GetMe)

	// Protected
	protected := authed.Group("")
	protected.Use(h.requireUser(false))
	{
		protected.PATCH("/me", h.UpdateMe)

		protected.GET("/classes", h.ListClasses)
		protected.POST("/classes", h.CreateClass)
		protected.GET("/classes/:classId", h.GetClass)
		protected.PATCH("/classes/:classId", h.RenameClass)
		protected.DELETE("/classes/:classId", h.DeleteClass)

		protected.GET("/classes/:classId/members", h.ListMembers)
		protected.PATCH("/classes/:classId/members/:userId", h.UpdateMemberRole)
		protected.DELETE("/classes/:classId/members/:userId", h.RemoveMember)

		protected.GET("/classes/:classId/invitations", h.ListInvitations)
		protected.POST("/classes/:classId/invitations", h.CreateInvitation)
		protected.POST("/invitations/accept", h.AcceptInvitation)
		protected.DELETE("/invitations/:invitationId", h.DeleteInvitation)

		protected.GET("/classes/:classId/weeks", h.ListWeeks)
		protected.POST("/classes/:classId/weeks", h.CreateWeek)
		protected.POST("/classes/:classId/weeks/import", h.ImportWeek)
		protected.POST("/classes/:classId/weeks/upload", h.UploadPDF)
		protected.POST("/classes/:classId/weeks/upload-xlsx", h.UploadWorkbook)
		protected.PATCH("/weeks/:weekId", h.RenameWeek)
		protected.DELETE("/weeks/:weekId", h.DeleteWeek)
		protected.GET("/weeks/:weekId/timetable", h.GetTimetable)
		protected.PATCH("/lessons/:entryId/notes", h.UpdateLessonNotes)

		protected.POST("/weeks/:weekId/notes/copy", h.CopyNotes)
		protected.GET("/weeks/:weekId/notes/sources", h.ListNotesSources)
		protected.POST("/notes/transfer/preview", h.TransferPreview)
		protected.POST("/notes/transfer", h.TransferNotes)

		protected.GET("/classes/:classId/teacher-colors", h.ListTeacherColors)
		protected.PUT("/classes/:classId/teacher-colors", h.SaveTeacherColors)
		protected.DELETE("/classes/:classId/teacher-colors/:teacher", h.DeleteTeacherColor)
		protected.POST("/classes/:classId/teacher-colors/reset", h.ResetTeacherColors)
	}

	return r
}
