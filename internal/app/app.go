// Package app wires the service components from config and AWS clients.
// Both binaries build their dependency graph here.
package app

import (
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/aws"
	"github.com/imrishuroy/certified-builder-api/internal/certificates"
	"github.com/imrishuroy/certified-builder-api/internal/config"
	"github.com/imrishuroy/certified-builder-api/internal/download"
	"github.com/imrishuroy/certified-builder-api/internal/handlers"
	"github.com/imrishuroy/certified-builder-api/internal/idempotency"
	"github.com/imrishuroy/certified-builder-api/internal/lookup"
	"github.com/imrishuroy/certified-builder-api/internal/orders"
	"github.com/imrishuroy/certified-builder-api/internal/ordersource"
	"github.com/imrishuroy/certified-builder-api/internal/participants"
	"github.com/imrishuroy/certified-builder-api/internal/products"
	"github.com/imrishuroy/certified-builder-api/internal/registration"
	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
)

// Components is the assembled service.
type Components struct {
	Certificates *certificates.Repository
	Dispatcher   *lookup.Dispatcher
	Registration *registration.Service
	Download     *download.Service
	Idempotency  *idempotency.Store
}

// Build constructs every component. It does no I/O.
func Build(cfg *config.Config, clients *aws.AWSClients, logger *zap.Logger) *Components {
	store := tablestore.New(clients.DynamoDB, logger.Named("tablestore"))
	certs := certificates.NewRepository(store, cfg.MustTableName(config.EntityCertificates), logger.Named("certificates"))

	deps := registration.Deps{
		Source:       ordersource.NewClient(cfg.URLServiceTech, cfg.HTTPTimeout, logger.Named("ordersource")),
		Participants: participants.NewStore(store, cfg.MustTableName(config.EntityParticipants), logger),
		Products:     products.NewStore(store, cfg.MustTableName(config.EntityProducts), logger),
		Orders:       orders.NewStore(store, cfg.MustTableName(config.EntityOrders), logger),
		Certificates: certs,
		Metrics:      aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, cfg.Environment, logger),
		Logger:       logger.Named("registration"),
	}
	if cfg.BuilderQueueURL != "" {
		deps.Publisher = aws.NewPublisher(clients.SQS, cfg.BuilderQueueURL)
	}

	return &Components{
		Certificates: certs,
		Dispatcher:   lookup.NewDispatcher(certs, logger.Named("lookup")),
		Registration: registration.NewService(deps),
		Download:     download.NewService(certs, aws.NewPresigner(clients.S3Presign, cfg.S3BucketName, logger), logger.Named("download")),
		Idempotency:  idempotency.NewStore(clients.DynamoDB, cfg.MustTableName(config.EntityIdempotency), cfg.IdempotencyTTL),
	}
}

// HandlerConfig returns the HTTP handler dependencies.
func (c *Components) HandlerConfig(cfg *config.Config, logger *zap.Logger) handlers.HandlerConfig {
	return handlers.HandlerConfig{
		Prefix:      cfg.PrefixAPIVersion,
		Registrar:   c.Registration,
		Searcher:    c.Dispatcher,
		Downloader:  c.Download,
		Idempotency: c.Idempotency,
		Logger:      logger.Named("http"),
	}
}
