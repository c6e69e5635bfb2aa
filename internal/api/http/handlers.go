package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/bundle"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/installer"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/notify"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/preinstall"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/usage"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// Deps are the components the handlers serve
type Deps struct {
	Registry   *bundle.Manager
	Installer  *installer.Installer
	Hub        *notify.Hub
	PreInstall *preinstall.Table
	Usage      *usage.Tracker
	Metrics    *monitoring.Metrics
	Log        *zap.Logger
}

// Handlers holds the HTTP handlers of the bundle manager
type Handlers struct {
	registry   *bundle.Manager
	installer  *installer.Installer
	hub        *notify.Hub
	preinstall *preinstall.Table
	usage      *usage.Tracker
	metrics    *monitoring.Metrics
	log        *zap.Logger
	started    time.Time
}

// NewHandlers creates handlers over deps
func NewHandlers(deps Deps) *Handlers {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		registry:   deps.Registry,
		installer:  deps.Installer,
		hub:        deps.Hub,
		preinstall: deps.PreInstall,
		usage:      deps.Usage,
		metrics:    deps.Metrics,
		log:        log.Named("api"),
		started:    time.Now(),
	}
}

// Health reports liveness and registry size
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"bundles":          len(h.registry.GetBundleNames()),
		"status_listeners": h.hub.StatusCallbackCount(),
		"uptime_seconds":   time.Since(h.started).Seconds(),
	})
}

// Stats returns a JSON summary of the service metrics
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	snap := h.metrics.Snapshot()

	errorRate := 0.0
	if snap.TotalRequests > 0 {
		errorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp":            time.Now(),
		"total_requests":       snap.TotalRequests,
		"error_rate":           errorRate,
		"average_latency_ms":   float64(snap.AverageLatency()) / float64(time.Millisecond),
		"bundles":              snap.Bundles,
		"rejected_transitions": snap.RejectedTransitions,
		"active_connections":   snap.ActiveConnections,
		"uptime_seconds":       time.Since(h.started).Seconds(),
	})
}

// ============================================================================
// Request helpers
// ============================================================================

// userParam reads ?user=, defaulting to the unspecified user so the calling
// uid decides
func userParam(c *gin.Context) (int32, bool) {
	raw := c.Query("user")
	if raw == "" {
		return types.UnspecifiedUserID, true
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user parameter"})
		return 0, false
	}
	return int32(v), true
}

// int32Query reads an optional int32 query parameter
func int32Query(c *gin.Context, name string) (int32, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return int32(v), true
}

func int32Param(c *gin.Context, name string) (int32, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return int32(v), true
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

// registryError maps a registry error to a status code
func registryError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bundle.ErrBundleNotFound),
		errors.Is(err, bundle.ErrModuleNotFound),
		errors.Is(err, bundle.ErrAbilityNotFound),
		errors.Is(err, bundle.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bundle.ErrInvalidUser), errors.Is(err, bundle.ErrInvalidDevice):
		status = http.StatusBadRequest
	case errors.Is(err, bundle.ErrIllegalState), errors.Is(err, bundle.ErrBundleExists):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var resultStatus = map[installer.Code]int{
	installer.ErrOK:                              http.StatusOK,
	installer.ErrInstallInternalError:            http.StatusInternalServerError,
	installer.ErrInstallStateError:               http.StatusConflict,
	installer.ErrInstallParamError:               http.StatusBadRequest,
	installer.ErrInstallUserNotExist:             http.StatusNotFound,
	installer.ErrInstallAlreadyExist:             http.StatusConflict,
	installer.ErrInstallVersionDowngrade:         http.StatusConflict,
	installer.ErrUninstallMissingInstalledBundle: http.StatusNotFound,
	installer.ErrUninstallMissingInstalledModule: http.StatusNotFound,
	installer.ErrUninstallSystemApp:              http.StatusForbidden,
}

func writeResult(c *gin.Context, res installer.Result) {
	status, ok := resultStatus[res.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"success": res.OK(),
		"code":    res.Code.String(),
		"result":  res,
	})
}
