// Package id provides centralized ID generation for the bundle manager.
//
// Listener, request and operation ids are prefixed ULIDs:
//   - Lexicographic sortability: registration order is visible in logs
//   - Prefixed types: lsn_*, req_*, op_*, sub_*, trc_*, spn_* make ids self-describing
//   - Type safety: separate types prevent ID misuse
//
// Broadcast event ids are UUIDv7, the form CloudEvents consumers expect.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// ListenerID identifies a remote bundle-status listener
type ListenerID string

// RequestID identifies an API request
type RequestID string

// OperationID identifies one installer operation across its log lines
type OperationID string

// SubscriberID identifies an in-process broadcast subscriber
type SubscriberID string

// EventID identifies a published broadcast event
type EventID string

const (
	ListenerPrefix   = "lsn"
	RequestPrefix    = "req"
	OperationPrefix  = "op"
	SubscriberPrefix = "sub"
	TracePrefix      = "trc"
	SpanPrefix       = "spn"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewListenerID generates a new listener ID
func NewListenerID() ListenerID {
	return ListenerID(Default().GenerateWithPrefix(ListenerPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewOperationID generates a new installer operation ID
func NewOperationID() OperationID {
	return OperationID(Default().GenerateWithPrefix(OperationPrefix))
}

// NewSubscriberID generates a new subscriber ID
func NewSubscriberID() SubscriberID {
	return SubscriberID(Default().GenerateWithPrefix(SubscriberPrefix))
}

// NewEventID generates a time-ordered UUIDv7, falling back to v4 if the clock
// source fails
func NewEventID() EventID {
	u, err := uuid.NewV7()
	if err != nil {
		return EventID(uuid.NewString())
	}
	return EventID(u.String())
}

func (id ListenerID) String() string   { return string(id) }
func (id RequestID) String() string    { return string(id) }
func (id OperationID) String() string  { return string(id) }
func (id SubscriberID) String() string { return string(id) }
func (id EventID) String() string      { return string(id) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// IsEventID checks if an ID string is a valid event UUID
func IsEventID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
