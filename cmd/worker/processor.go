package main

import (
	"context"
	"fmt"
	"log/slog"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-restaurant-pos/internal/events"
	"github.com/imrishuroy/go-restaurant-pos/internal/idempotency"
)

// TableMarker flips a table to occupied when an order lands on it.
type TableMarker interface {
	MarkOccupiedByNumber(ctx context.Context, number int) error
}

// Deduper drops events that were already handled. SQS delivers at least once.
type Deduper interface {
	Begin(ctx context.Context, key, fingerprint string) (idempotency.Decision, *idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// Processor consumes POS events from SQS.
type Processor struct {
	tables TableMarker
	dedupe Deduper
	logger *slog.Logger
}

// NewProcessor builds a processor. dedupe may be nil.
func NewProcessor(tables TableMarker, dedupe Deduper, logger *slog.Logger) *Processor {
	return &Processor{tables: tables, dedupe: dedupe, logger: logger}
}

// Handle processes a batch and reports the messages that failed so only
// those are redelivered.
func (p *Processor) Handle(ctx context.Context, ev lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	var resp lambdaevents.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("event processing failed", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec lambdaevents.SQSMessage) error {
	ev, err := events.Decode([]byte(rec.Body))
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	key := "event:" + ev.ID
	claimed := false
	if p.dedupe != nil && ev.ID != "" {
		decision, _, err := p.dedupe.Begin(ctx, key, idempotency.Fingerprint("EVENT", ev.Type, []byte(rec.Body)))
		if err != nil {
			return fmt.Errorf("dedupe event %s: %w", ev.ID, err)
		}
		switch decision {
		case idempotency.Replay:
			p.logger.Info("duplicate event skipped", "event_id", ev.ID, "type", ev.Type)
			return nil
		case idempotency.InFlight:
			return fmt.Errorf("event %s is being processed by another worker", ev.ID)
		}
		claimed = true
	}

	if err := p.apply(ctx, ev); err != nil {
		if claimed {
			if merr := p.dedupe.MarkFailed(ctx, key, err.Error()); merr != nil {
				p.logger.Error("failed to release event key", "event_id", ev.ID, "error", merr)
			}
		}
		return err
	}

	if claimed {
		if err := p.dedupe.MarkDone(ctx, key, "", 200); err != nil {
			p.logger.Error("failed to mark event done", "event_id", ev.ID, "error", err)
		}
	}
	return nil
}

func (p *Processor) apply(ctx context.Context, ev events.Event) error {
	switch ev.Type {
	case events.TypeOrderPlaced:
		if ev.TableNumber <= 0 {
			return fmt.Errorf("order event %s has no table number", ev.ID)
		}
		p.logger.Info("order placed", "order_id", ev.OrderID, "table_number", ev.TableNumber, "merged", ev.Merged)
		return p.tables.MarkOccupiedByNumber(ctx, ev.TableNumber)
	case events.TypePaymentRecorded:
		p.logger.Info("payment recorded", "order_id", ev.OrderID, "payment_id", ev.PaymentID, "amount", ev.Amount)
		return nil
	default:
		p.logger.Warn("ignoring unknown event type", "type", ev.Type, "event_id", ev.ID)
		return nil
	}
}
