package services

import (
	"context"
	"log/slog"

	"pocketmoney/internal/amqp"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
)

// Publisher sends change events. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e *amqp.Event) error
}

// publish never fails the caller: the store write already succeeded.
func publish(ctx context.Context, p Publisher, e *amqp.Event) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "type", e.Type)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", e.Type,
			log.FieldKidID, e.KidID,
			log.FieldEntryID, e.EntryID,
			log.FieldError, err)
	}
}

func choreEvent(eventType string, e core.ChoreEntry) *amqp.Event {
	ev := amqp.NewEvent(eventType, e.KidID)
	ev.EntryID = e.ID
	ev.Date = e.EntryDate.String()
	ev.Status = string(e.Status)
	if !e.Amount.IsZero() {
		amount := e.Amount
		ev.Amount = &amount
	}
	return ev
}
