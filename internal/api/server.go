// Package api exposes the notification service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/validation"
	"event-notifications/internal/models"
	"event-notifications/internal/repository"
	"event-notifications/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const BasePath = "/api/v1/notifications"

type TemplateService interface {
	List(ctx context.Context, tenantID string, f models.TemplateFilter) ([]models.Template, error)
	Create(ctx context.Context, tenantID, createdBy string, in models.TemplateInput) (*models.Template, error)
	Update(ctx context.Context, tenantID, id string, patch models.TemplatePatch) (*models.Template, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type ReportingService interface {
	History(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error)
	ExportRows(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error)
	Dashboard(ctx context.Context, scope repository.Scope) (*models.Dashboard, error)
	ChannelStatistics(ctx context.Context, scope repository.Scope, periodDays int) (*models.ChannelStatistics, error)
}

type Dispatcher interface {
	ProcessEvent(ctx context.Context, tenantID, event string, data map[string]interface{}) (int, error)
	SendManual(ctx context.Context, tenantID string, req models.ManualSendRequest) (*models.SentNotification, error)
	SendTest(ctx context.Context, tenantID string, channel models.Channel, recipient string) (*models.TestSendResult, error)
}

type SettingsStore interface {
	GetOrCreate(ctx context.Context, tenantID string) (*models.ChannelConfig, error)
	Save(ctx context.Context, cfg *models.ChannelConfig) error
}

type Searcher interface {
	Search(ctx context.Context, scope repository.Scope, q string, size int) (*search.Result, error)
}

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Templates  TemplateService
	Reporting  ReportingService
	Dispatcher Dispatcher
	Settings   SettingsStore
	// Search is nil when the search backend is disabled.
	Search   Searcher
	Tokens   TokenParser
	Recorder RequestRecorder
	Checks   map[string]ReadinessCheck
	Logger   logger.Logger

	// ManualSendTimeout bounds background manual sends.
	ManualSendTimeout time.Duration
}

type Handler struct {
	deps       Dependencies
	logger     logger.Logger
	background sync.WaitGroup
}

func NewHandler(deps Dependencies) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.ManualSendTimeout <= 0 {
		deps.ManualSendTimeout = 2 * time.Minute
	}
	return &Handler{deps: deps, logger: deps.Logger.Named("api")}
}

// Wait blocks until background manual sends have finished.
func (h *Handler) Wait() {
	h.background.Wait()
}

var registerValidators sync.Once

// NewRouter builds the engine with middleware, health probes, metrics and
// the notification routes.
func NewRouter(h *Handler) (*gin.Engine, error) {
	var regErr error
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			regErr = fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
			return
		}
		regErr = validation.RegisterCustomValidators(v)
	})
	if regErr != nil {
		return nil, regErr
	}

	r := gin.New()
	r.Use(Recovery(h.logger), RequestLogger(h.logger), Metrics(h.deps.Recorder))

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.Register(r.Group(BasePath))
	return r, nil
}

// Register mounts the authenticated notification routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.Use(Authenticate(h.deps.Tokens))

	// any role
	g.GET("/history", h.history)
	g.GET("/history/search", h.searchHistory)
	g.GET("/dashboard", h.dashboard)
	g.GET("/statistics/channels", h.channelStatistics)
	g.GET("/export/:format", h.export)
	g.GET("/types", h.types)
	g.GET("/channels", h.channels)

	admin := g.Group("", RequireAdmin())
	admin.GET("/templates", h.listTemplates)
	admin.POST("/templates", h.createTemplate)
	admin.PUT("/templates/:id", h.updateTemplate)
	admin.DELETE("/templates/:id", h.deleteTemplate)
	admin.POST("/send", h.sendManual)
	admin.POST("/events", h.dispatchEvent)
	admin.GET("/settings", h.getSettings)
	admin.PUT("/settings", h.updateSettings)
	admin.POST("/channels/:channel/test", h.testChannel)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, check := range h.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// scope limits reporting to the caller's tenant unless the caller is an
// admin.
func scope(c *gin.Context) repository.Scope {
	p := principal(c)
	if p.IsAdmin() {
		return repository.Scope{TenantID: p.TenantID, AllTenants: true}
	}
	return repository.Scope{TenantID: p.TenantID}
}
