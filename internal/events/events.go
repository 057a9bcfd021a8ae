package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scoring engine.
const (
	TypeResultMaterialized   = "result.materialized"
	TypeResultManuallyGraded = "result.manually_graded"
	TypeResultsRegenerated   = "results.regenerated"
	TypeAnalyticsComputed    = "analytics.computed"
)

// Kafka topics the engine publishes to.
const (
	TopicResults   = "scoring.results"
	TopicAnalytics = "scoring.analytics"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent builds an envelope with a fresh id and current timestamp.
func NewEvent(eventType string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "scoring-engine",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes engine events to the message broker. Publishing
// failures are logged by callers but never fail the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}
