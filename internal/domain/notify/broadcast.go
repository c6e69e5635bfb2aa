package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/id"
)

// ErrUndelivered is returned when a sink does not acknowledge an event
var ErrUndelivered = errors.New("event not delivered")

// Broadcaster publishes system-wide bundle events
type Broadcaster interface {
	Publish(ctx context.Context, event cloudevents.Event) error
}

// ============================================================================
// In-process subscribers
// ============================================================================

// Subscriber handles one published event
type Subscriber func(ctx context.Context, event cloudevents.Event)

// LocalBroadcaster delivers events synchronously to in-process subscribers
type LocalBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[id.SubscriberID]Subscriber // Protected by mu
}

// NewLocalBroadcaster creates an empty in-process broadcaster
func NewLocalBroadcaster() *LocalBroadcaster {
	return &LocalBroadcaster{subscribers: make(map[id.SubscriberID]Subscriber)}
}

// Subscribe adds fn and returns its id
func (b *LocalBroadcaster) Subscribe(fn Subscriber) id.SubscriberID {
	sid := id.NewSubscriberID()
	b.mu.Lock()
	b.subscribers[sid] = fn
	b.mu.Unlock()
	return sid
}

// Unsubscribe removes the subscriber sid
func (b *LocalBroadcaster) Unsubscribe(sid id.SubscriberID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sid]; !ok {
		return false
	}
	delete(b.subscribers, sid)
	return true
}

// Publish hands event to every subscriber
func (b *LocalBroadcaster) Publish(ctx context.Context, event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, event.Clone())
	}
	return nil
}

// ============================================================================
// HTTP sink
// ============================================================================

// SinkConfig configures delivery to a CloudEvents HTTP sink
type SinkConfig struct {
	Target     string
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	Timeout    time.Duration
}

// SinkBroadcaster posts events to a CloudEvents HTTP endpoint in binary
// mode, retrying transient failures
type SinkBroadcaster struct {
	client cloudevents.Client
	target string
	log    *zap.Logger
}

// NewSinkBroadcaster creates a broadcaster for cfg.Target
func NewSinkBroadcaster(cfg SinkConfig, log *zap.Logger) (*SinkBroadcaster, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("event sink target is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	if cfg.MinWait > 0 {
		retryClient.RetryWaitMin = cfg.MinWait
	}
	if cfg.MaxWait > 0 {
		retryClient.RetryWaitMax = cfg.MaxWait
	}
	retryClient.Logger = nil // Disable logging
	httpClient := retryClient.StandardClient()
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	protocol, err := cehttp.New(cehttp.WithTarget(cfg.Target), cehttp.WithClient(*httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create event protocol: %w", err)
	}
	client, err := cloudevents.NewClient(protocol, cloudevents.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("failed to create event client: %w", err)
	}

	return &SinkBroadcaster{
		client: client,
		target: cfg.Target,
		log:    log.Named("sink"),
	}, nil
}

// Publish sends event to the sink
func (s *SinkBroadcaster) Publish(ctx context.Context, event cloudevents.Event) error {
	result := s.client.Send(ctx, event)
	if !cloudevents.IsACK(result) {
		s.log.Debug("Sink rejected event",
			zap.String("target", s.target),
			zap.String("id", event.ID()),
			zap.Error(result))
		return fmt.Errorf("%w: %s: %v", ErrUndelivered, s.target, result)
	}
	return nil
}

// GuardedBroadcaster stops publishing to next while its breaker is open
type GuardedBroadcaster struct {
	next    Broadcaster
	breaker *resilience.Breaker
}

// NewGuardedBroadcaster wraps next with breaker
func NewGuardedBroadcaster(next Broadcaster, breaker *resilience.Breaker) *GuardedBroadcaster {
	return &GuardedBroadcaster{next: next, breaker: breaker}
}

// Publish sends event through the breaker
func (g *GuardedBroadcaster) Publish(ctx context.Context, event cloudevents.Event) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.Publish(ctx, event)
	})
}

// ============================================================================
// Fan-out
// ============================================================================

// MultiBroadcaster publishes to several broadcasters and joins their errors
type MultiBroadcaster []Broadcaster

// Publish sends event to every broadcaster
func (m MultiBroadcaster) Publish(ctx context.Context, event cloudevents.Event) error {
	var errs []error
	for _, b := range m {
		if err := b.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
