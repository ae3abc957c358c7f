package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/shopclassy/internal/domain"
)

const (
	EventCartUpdated    = "CartUpdated"
	EventCatalogUpdated = "CatalogUpdated"
	eventVersion        = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewCartUpdated wraps a cart snapshot. The cart key is used as correlation id.
func NewCartUpdated(producer, cartKey string, snap domain.CartSnapshot) (Envelope, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode cart payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventCartUpdated,
		EventVersion:  eventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: cartKey,
		Payload:       payload,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
