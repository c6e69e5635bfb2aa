package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// StatusCallback receives bundle status notifications for one bundle.
// Implementations must be comparable; registration identity is ==.
type StatusCallback interface {
	BundleName() string
	OnBundleStatus(ctx context.Context, data types.NotifyData)
}

// DeathNotifier is implemented by callbacks whose endpoint can go away.
// The hub drops the registration once Done is closed.
type DeathNotifier interface {
	Done() <-chan struct{}
}

// Hub fans bundle status and permission changes out to listeners
type Hub struct {
	mu        sync.RWMutex
	callbacks []StatusCallback // Protected by mu

	permMu    sync.RWMutex
	listeners []*permissionListener // Protected by permMu

	broadcaster Broadcaster
	source      string
	log         *zap.Logger
	metrics     *monitoring.Metrics
}

// NewHub creates a notification hub. A nil broadcaster disables system
// broadcasts.
func NewHub(broadcaster Broadcaster, source string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if source == "" {
		source = DefaultSource
	}
	return &Hub{
		broadcaster: broadcaster,
		source:      source,
		log:         log.Named("notify"),
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// RegisterBundleStatusCallback adds cb. Callbacks without a bundle name are
// rejected.
func (h *Hub) RegisterBundleStatusCallback(cb StatusCallback) bool {
	if cb == nil || cb.BundleName() == "" {
		return false
	}

	h.mu.Lock()
	for _, existing := range h.callbacks {
		if existing == cb {
			h.mu.Unlock()
			return true
		}
	}
	h.callbacks = append(h.callbacks, cb)
	count := len(h.callbacks)
	h.mu.Unlock()

	h.setListenerGauge(count)
	if dn, ok := cb.(DeathNotifier); ok {
		go h.watchStatusCallback(cb, dn.Done())
	}
	h.log.Debug("Bundle status callback registered", zap.String("bundle", cb.BundleName()))
	return true
}

func (h *Hub) watchStatusCallback(cb StatusCallback, done <-chan struct{}) {
	<-done
	if h.ClearBundleStatusCallback(cb) {
		h.log.Info("Pruned dead bundle status callback", zap.String("bundle", cb.BundleName()))
	}
}

// ClearBundleStatusCallback removes cb
func (h *Hub) ClearBundleStatusCallback(cb StatusCallback) bool {
	if cb == nil {
		return false
	}

	h.mu.Lock()
	removed := false
	kept := h.callbacks[:0]
	for _, existing := range h.callbacks {
		if existing == cb {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	h.callbacks = kept
	count := len(h.callbacks)
	h.mu.Unlock()

	h.setListenerGauge(count)
	return removed
}

// UnregisterBundleStatusCallback removes every status callback
func (h *Hub) UnregisterBundleStatusCallback() bool {
	h.mu.Lock()
	h.callbacks = nil
	h.mu.Unlock()

	h.setListenerGauge(0)
	return true
}

// StatusCallbackCount returns the number of registered status callbacks
func (h *Hub) StatusCallbackCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.callbacks)
}

// NotifyBundleStatus delivers data to the callbacks registered for its
// bundle. A successful result is also published as a system broadcast.
func (h *Hub) NotifyBundleStatus(ctx context.Context, data types.NotifyData) bool {
	h.mu.RLock()
	targets := make([]StatusCallback, 0, len(h.callbacks))
	for _, cb := range h.callbacks {
		if cb.BundleName() == data.BundleName {
			targets = append(targets, cb)
		}
	}
	h.mu.RUnlock()

	for _, cb := range targets {
		cb.OnBundleStatus(ctx, data)
	}
	if h.metrics != nil {
		h.metrics.RecordNotification(string(data.Type), data.ResultCode == 0)
	}

	if data.ResultCode == 0 {
		h.broadcast(ctx, data)
	}
	return true
}

func (h *Hub) broadcast(ctx context.Context, data types.NotifyData) {
	if h.broadcaster == nil {
		return
	}
	event, ok := NewBundleEvent(h.source, data)
	if !ok {
		h.log.Debug("No broadcast for notify type", zap.String("type", string(data.Type)))
		return
	}
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		event.SetExtension("traceid", string(traceID))
	}

	err := h.broadcaster.Publish(ctx, event)
	if h.metrics != nil {
		h.metrics.RecordBroadcast(event.Type(), err)
	}
	if err != nil {
		h.log.Warn("Failed to publish bundle event",
			zap.String("bundle", data.BundleName),
			zap.String("event", event.Type()),
			zap.Error(err))
	}
}

func (h *Hub) setListenerGauge(count int) {
	if h.metrics != nil {
		h.metrics.SetStatusListeners(count)
	}
}
