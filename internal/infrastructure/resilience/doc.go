/*
Package resilience provides the circuit breaker that guards the bundle event sink.

When BMS_EVENT_SINK is set, bundle broadcasts go to the sink through a
breaker named "event-sink". While the breaker is open, sink publishes fail
fast with ErrCircuitOpen and the hub logs them; in-process subscribers are
not behind the breaker and still receive every event.

Defaults: the breaker trips after 5 consecutive failures, stays open for
60s, then lets one probe through in half-open. A probe that succeeds closes
it, one that fails reopens it. A cancelled context never counts as a
failure, and a panic in the guarded call does.

# Usage

	breaker := resilience.New("event-sink", resilience.Settings{
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	sink := notify.NewGuardedBroadcaster(next, breaker)
*/
package resilience
