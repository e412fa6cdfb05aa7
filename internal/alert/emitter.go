// Package alert publishes human-facing notifications for high and critical
// security events. Delivery is best-effort and asynchronous; a failed emit
// never fails the operation that produced the event.
package alert

import (
	"context"
	"time"
)

// Notification is the payload published to the alert topic and consumed by the
// worker for operator delivery.
type Notification struct {
	EventType     string         `json:"eventType"`
	Severity      string         `json:"severity"`
	Success       bool           `json:"success"`
	UserID        string         `json:"userId,omitempty"`
	SourceAddress string         `json:"sourceAddress,omitempty"`
	ClientAgent   string         `json:"clientAgent,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Emitter publishes a single notification. Implementations must be safe for
// concurrent use.
type Emitter interface {
	Emit(ctx context.Context, n *Notification) error
}
