package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
)

// CacheInvalidator drops cached fee listings when a payment lands.
type CacheInvalidator interface {
	InvalidateSchool(ctx context.Context, schoolID string) error
}

type EventHandler struct {
	cache  CacheInvalidator
	logger *slog.Logger
}

func NewEventHandler(cache CacheInvalidator, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		cache:  cache,
		logger: logger,
	}
}

// HandlePaymentSucceeded drops the school's cached fee listings so the
// payer sees the new balance on the next portal load.
func (h *EventHandler) HandlePaymentSucceeded(ctx context.Context, event events.Event) error {
	paymentEvent, ok := event.(*events.PaymentSucceededEvent)
	if !ok {
		h.logger.Error("invalid event type for payment succeeded handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentSucceededEvent, got %T", event)
	}

	h.logger.Info("payment succeeded",
		"payment_id", paymentEvent.PaymentID,
		"order_id", paymentEvent.GatewayOrderID,
		"receipt_number", paymentEvent.ReceiptNumber,
		"amount", paymentEvent.Amount,
		"event_id", paymentEvent.EventID())

	if h.cache != nil {
		if err := h.cache.InvalidateSchool(ctx, paymentEvent.SchoolID); err != nil {
			h.logger.Error("failed to invalidate fee cache after payment",
				"error", err,
				"school_id", paymentEvent.SchoolID)
			return err
		}
	}
	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	paymentEvent, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.logger.Warn("payment failed",
		"payment_id", paymentEvent.PaymentID,
		"order_id", paymentEvent.GatewayOrderID,
		"failure_reason", paymentEvent.FailureReason,
		"event_id", paymentEvent.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentSucceeded, h.HandlePaymentSucceeded)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypePaymentSucceeded, events.EventTypePaymentFailed})
}
