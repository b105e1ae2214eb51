// Package worker consumes ledger events and keeps the external report
// sheet in sync with the months they touch.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"carteira/internal/amqp"
	"carteira/internal/services"
	"carteira/internal/sheets"
)

type EventWorker struct {
	events *amqp.Client
	ledger *services.LedgerService
	writer sheets.ReportWriter
}

func NewEventWorker(events *amqp.Client, ledger *services.LedgerService, writer sheets.ReportWriter) *EventWorker {
	return &EventWorker{
		events: events,
		ledger: ledger,
		writer: writer,
	}
}

// Run consumes events until the context is cancelled. Each event triggers a
// re-export of the overview for the month the event was emitted in; a
// handler error nacks the message back onto the queue.
func (w *EventWorker) Run(ctx context.Context) error {
	return w.events.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return w.handle(ctx, msg)
	})
}

func (w *EventWorker) handle(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	year := msg.Timestamp.Year()
	month := int(msg.Timestamp.Month())

	overview, err := w.ledger.MonthOverview(ctx, year, month)
	if err != nil {
		return fmt.Errorf("month overview %d-%02d: %w", year, month, err)
	}

	ref, err := w.writer.WriteMonthOverview(ctx, overview)
	if err != nil {
		return fmt.Errorf("write overview: %w", err)
	}

	slog.InfoContext(ctx, "Report synced",
		"kind", msg.Kind,
		"entity_id", msg.EntityID,
		"year", year,
		"month", month,
		"sheets_ref", ref)
	return nil
}
