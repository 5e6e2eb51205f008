package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"zlatko/internal/config"
	"zlatko/internal/events"
	"zlatko/internal/service"
	"zlatko/internal/service/scheduler"
)

// Deps are the collaborators the HTTP layer dispatches to
type Deps struct {
	DB             *gorm.DB
	Sync           *service.SyncService
	Reconciler     *service.Reconciler
	Prospects      *service.ProspectService
	Communications *service.CommunicationService
	Credentials    *service.CredentialService
	Scheduler      *scheduler.Scheduler
	Bus            *events.Bus
	Auth           config.AuthConfig
	// AuthURL builds the provider consent URL; nil disables the endpoint
	AuthURL  func(state string) string
	Gatherer prometheus.Gatherer
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db             *gorm.DB
	sync           *service.SyncService
	reconciler     *service.Reconciler
	prospects      *service.ProspectService
	communications *service.CommunicationService
	credentials    *service.CredentialService
	scheduler      *scheduler.Scheduler
	bus            *events.Bus
	auth           config.AuthConfig
	authURL        func(state string) string
	gatherer       prometheus.Gatherer
}

// NewHandlers creates new HTTP handlers
func NewHandlers(deps Deps) *Handlers {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		db:             deps.DB,
		sync:           deps.Sync,
		reconciler:     deps.Reconciler,
		prospects:      deps.Prospects,
		communications: deps.Communications,
		credentials:    deps.Credentials,
		scheduler:      deps.Scheduler,
		bus:            deps.Bus,
		auth:           deps.Auth,
		authURL:        deps.AuthURL,
		gatherer:       gatherer,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	router.GET("/oauth/callback", h.OAuthCallback)

	api := router.Group("/api/v1")
	api.Use(Identity(h.auth))
	{
		api.POST("/sync", h.SyncProspect)
		api.POST("/reconcile", h.Reconcile)

		api.GET("/prospects", h.ListProspects)
		api.POST("/prospects", h.CreateProspect)
		api.GET("/prospects/:id", h.GetProspect)
		api.PUT("/prospects/:id", h.UpdateProspect)
		api.DELETE("/prospects/:id", h.DeleteProspect)
		api.PATCH("/prospects/:id/archive", h.ArchiveProspect)
		api.PATCH("/prospects/:id/unarchive", h.UnarchiveProspect)
		api.POST("/prospects/:id/draft", h.DraftEmail)

		api.GET("/prospects/:id/communications", h.ListCommunications)
		api.POST("/prospects/:id/communications", h.CreateCommunication)
		api.DELETE("/communications/:id", h.DeleteCommunication)

		api.GET("/credentials/:provider", h.GetCredential)
		api.GET("/credentials/:provider/auth-url", h.GetAuthURL)
		api.POST("/credentials/:provider", h.ConnectCredential)
		api.PATCH("/credentials/:provider/sync", h.SetCredentialSync)
		api.DELETE("/credentials/:provider", h.DisconnectCredential)

		api.GET("/events", h.StreamEvents)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/sync-once", h.RunSyncOnce)
		api.POST("/scheduler/reconcile-once", h.RunReconcileOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Metrics:   make(map[string]string),
	}

	if err := h.pingDatabase(c); err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		status := h.scheduler.Status()
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_sync"] = status.NextSync.Format(time.RFC3339)
		response.Metrics["next_reconcile"] = status.NextReconcile.Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *Handlers) pingDatabase(c *gin.Context) error {
	if h.db == nil {
		return errors.New("database not configured")
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request.Context())
}

// respondError maps service errors to status codes
func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{Message: err.Error()}

	switch {
	case errors.Is(err, service.ErrMissingInput), errors.Is(err, service.ErrUnsupportedProvider):
		resp.Code = http.StatusBadRequest
		resp.Error = "validation_error"
	case errors.Is(err, service.ErrNotConnected):
		resp.Code = http.StatusUnauthorized
		resp.Error = "not_connected"
	case errors.Is(err, service.ErrTokenRefresh):
		resp.Code = http.StatusUnauthorized
		resp.Error = "token_refresh_failed"
	case errors.Is(err, service.ErrNotFound):
		resp.Code = http.StatusNotFound
		resp.Error = "not_found"
	case errors.Is(err, service.ErrGeneration):
		resp.Code = http.StatusBadGateway
		resp.Error = "generation_failed"
	default:
		resp.Code = http.StatusInternalServerError
		resp.Error = "internal_error"
		resp.Message = "Unexpected failure"
		resp.Details = err.Error()
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}

	c.JSON(resp.Code, resp)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}
