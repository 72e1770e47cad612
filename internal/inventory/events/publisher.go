package events

import (
	"context"

	"github.com/stocklot/stocklot-backend/internal/inventory/domain"
	"github.com/stocklot/stocklot-backend/pkg/logger"
	"github.com/stocklot/stocklot-backend/pkg/messaging"
)

// Sink is where events go. Satisfied by messaging.Publisher and by the
// test double in pkg/testutil.
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// InventoryEventPublisher publishes inventory-related events. A nil
// publisher is valid and drops everything, so the server can run
// without a broker.
type InventoryEventPublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewInventoryEventPublisher creates a publisher backed by RabbitMQ
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "stocklot-server", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		sink:   publisher,
		logger: log,
	}, nil
}

// NewWithSink creates a publisher with a custom sink (tests)
func NewWithSink(sink Sink, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{sink: sink, logger: log}
}

// PublishProductCreated publishes a product created event
func (p *InventoryEventPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) {
	if p == nil {
		return
	}

	data := messaging.ProductCreatedEvent{
		Code:     product.Code,
		Name:     product.Name,
		Category: product.Category,
		Stock:    product.StockCurrent,
	}

	if err := p.sink.Publish(ctx, messaging.EventProductCreated, data); err != nil {
		p.logger.Error().Err(err).Int("code", product.Code).Msg("failed to publish product created event")
	}
}

// PublishProductUpdated publishes a product updated event
func (p *InventoryEventPublisher) PublishProductUpdated(ctx context.Context, code int, fields map[string]any) {
	if p == nil {
		return
	}

	data := messaging.ProductUpdatedEvent{Code: code, Fields: fields}
	if err := p.sink.Publish(ctx, messaging.EventProductUpdated, data); err != nil {
		p.logger.Error().Err(err).Int("code", code).Msg("failed to publish product updated event")
	}
}

// PublishProductDeleted publishes a product deleted event
func (p *InventoryEventPublisher) PublishProductDeleted(ctx context.Context, code int, name string) {
	if p == nil {
		return
	}

	data := messaging.ProductDeletedEvent{Code: code, Name: name}
	if err := p.sink.Publish(ctx, messaging.EventProductDeleted, data); err != nil {
		p.logger.Error().Err(err).Int("code", code).Msg("failed to publish product deleted event")
	}
}

// PublishMovementApplied publishes a movement applied event
func (p *InventoryEventPublisher) PublishMovementApplied(ctx context.Context, m *domain.Movement, newStock int, notice string) {
	if p == nil {
		return
	}

	data := messaging.MovementAppliedEvent{
		MovementID:  m.ID,
		ProductCode: m.ProductCode,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		NewStock:    newStock,
		Actor:       m.Actor,
		Reason:      m.Reason,
		Notice:      notice,
	}

	if err := p.sink.Publish(ctx, messaging.EventMovementApplied, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to publish movement applied event")
	}
}

// PublishAlertGenerated publishes a stock or expiry alert
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, product *domain.Product, alertType, severity, message string) {
	if p == nil {
		return
	}

	data := messaging.AlertGeneratedEvent{
		ProductCode: product.Code,
		ProductName: product.Name,
		AlertType:   alertType,
		Severity:    severity,
		Message:     message,
	}

	if err := p.sink.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Int("code", product.Code).Msg("failed to publish alert generated event")
	}
}
