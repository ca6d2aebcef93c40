// Package notify defines the structured events the trading core emits and
// the delivery boundary for them. The core only produces events; delivery
// (Discord, logs, anything else) is wired by the orchestrator.
package notify

import (
	"context"
	"time"
)

// Severity is the closed set of event severities.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is a structured notification produced by the core for trade opens
// and closes, safety violations, execution errors, and connection loss.
type Event struct {
	Severity Severity
	Message  string
	// Context carries small structured key-value detail (symbol, order id, ...).
	Context map[string]string
	Time    time.Time
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(ctx context.Context, event Event) error {
	return nil
}
