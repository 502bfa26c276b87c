package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/app"
	"github.com/imrishuroy/certified-builder-api/internal/aws"
	"github.com/imrishuroy/certified-builder-api/internal/config"
	"github.com/imrishuroy/certified-builder-api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.Region, cfg.EndpointOverride)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	components := app.Build(cfg, clients, logger)
	p := NewProcessor(components.Registration, logger.Named("worker"))

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"product_id":1,"correlation_id":"local-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{
					MessageId: "local",
					Body:      testBody,
				},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
