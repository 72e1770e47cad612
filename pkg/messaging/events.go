package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Product events
	EventProductCreated = "inventory.product.created"
	EventProductUpdated = "inventory.product.updated"
	EventProductDeleted = "inventory.product.deleted"

	// Movement events
	EventMovementApplied = "inventory.movement.applied"

	// Alert events
	EventAlertGenerated = "inventory.alert.generated"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ProductCreatedEvent is published when a product is registered
type ProductCreatedEvent struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	Code   int            `json:"code"`
	Fields map[string]any `json:"fields"`
}

// ProductDeletedEvent is published when a product is deleted
type ProductDeletedEvent struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// MovementAppliedEvent is published when a stock movement is applied
type MovementAppliedEvent struct {
	MovementID  string `json:"movement_id"`
	ProductCode int    `json:"product_code"`
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	NewStock    int    `json:"new_stock"`
	Actor       string `json:"actor"`
	Reason      string `json:"reason,omitempty"`
	Notice      string `json:"notice,omitempty"`
}

// AlertGeneratedEvent is published when a stock or expiry alert is raised
type AlertGeneratedEvent struct {
	ProductCode int    `json:"product_code"`
	ProductName string `json:"product_name"`
	AlertType   string `json:"alert_type"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
}
