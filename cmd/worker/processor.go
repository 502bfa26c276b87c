package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/registration"
)

// Registerer runs the registration workflow for one product.
type Registerer interface {
	Register(ctx context.Context, productID int64) (*registration.Result, error)
}

// Processor handles SQS messages by running registration for each.
type Processor struct {
	registrar Registerer
	logger    *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(registrar Registerer, logger *zap.Logger) *Processor {
	return &Processor{registrar: registrar, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received SQS messages", zap.Int("count", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.ProductID <= 0 {
		return fmt.Errorf("invalid message body: product_id must be positive, got %d", msg.ProductID)
	}

	log := p.logger.With(zap.Int64("product_id", msg.ProductID), zap.String("correlation_id", msg.CorrelationID))
	log.Info("registering product")

	res, err := p.registrar.Register(ctx, msg.ProductID)
	if err != nil {
		return fmt.Errorf("register product %d: %w", msg.ProductID, err)
	}

	log.Info("registration complete",
		zap.Int("certificate_quantity", res.CertificateQuantity),
		zap.Int("new_orders", len(res.NewOrders)),
		zap.Int("invalid_orders", len(res.InvalidOrders)))
	return nil
}
