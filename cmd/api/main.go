package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/app"
	"github.com/imrishuroy/certified-builder-api/internal/aws"
	"github.com/imrishuroy/certified-builder-api/internal/config"
	"github.com/imrishuroy/certified-builder-api/internal/handlers"
	"github.com/imrishuroy/certified-builder-api/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCertificateRoutes(r, cfg)

	return r
}

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
	r := setupRouter(components.HandlerConfig(cfg, logger))

	// RUN_LOCAL=true serves plain HTTP for development.
	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.LocalAddr))
		if err := r.Run(cfg.LocalAddr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
