// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Table entities.
const (
	EntityCertificates = "certificates"
	EntityOrders       = "orders"
	EntityParticipants = "participants"
	EntityProducts     = "products"
	EntityIdempotency  = "idempotency"
)

var entities = map[string]struct{}{
	EntityCertificates: {},
	EntityOrders:       {},
	EntityParticipants: {},
	EntityProducts:     {},
	EntityIdempotency:  {},
}

// Config holds every setting read from the environment.
type Config struct {
	Region           string        `envconfig:"REGION"`
	BuilderQueueURL  string        `envconfig:"BUILDER_QUEUE_URL"`
	S3BucketName     string        `envconfig:"S3_BUCKET_NAME"`
	Environment      string        `envconfig:"ENVIRONMENT" default:"dev"`
	ProjectName      string        `envconfig:"PROJECT_NAME" default:"certified-builder-api-py"`
	URLServiceTech   string        `envconfig:"URL_SERVICE_TECH"`
	PrefixAPIVersion string        `envconfig:"PREFIX_API_VERSION" default:"/api/v1"`
	EndpointOverride string        `envconfig:"AWS_ENDPOINT_OVERRIDE"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"48h"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE" default:"CertifiedBuilder"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RunLocal         bool          `envconfig:"RUN_LOCAL"`
	LocalAddr        string        `envconfig:"LOCAL_ADDR" default:":8080"`
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs in the production stage.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// TableName returns the DynamoDB table for entity, named
// {project}-{entity}-{environment}.
func (c *Config) TableName(entity string) (string, error) {
	if _, ok := entities[entity]; !ok {
		return "", fmt.Errorf("unknown table entity %q", entity)
	}
	return fmt.Sprintf("%s-%s-%s", c.ProjectName, entity, c.Environment), nil
}

// MustTableName is TableName for the entity constants above.
func (c *Config) MustTableName(entity string) string {
	name, err := c.TableName(entity)
	if err != nil {
		panic(err)
	}
	return name
}
