package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/aws"
	"github.com/imrishuroy/certified-builder-api/internal/certificates"
	"github.com/imrishuroy/certified-builder-api/internal/config"
	"github.com/imrishuroy/certified-builder-api/internal/lookup"
	"github.com/imrishuroy/certified-builder-api/internal/tablestore/tablestoretest"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		ProjectName:      "cb",
		PrefixAPIVersion: "/api/v1",
		IdempotencyTTL:   time.Hour,
		HTTPTimeout:      time.Second,
	}
}

func TestBuild_UsesResolvedTableNames(t *testing.T) {
	db := tablestoretest.New().
		AddTable("cb-certificates-test", "id").
		AddTable("cb-idempotency-test", "idempotency_key")
	c := Build(testConfig(), &aws.AWSClients{DynamoDB: db}, zap.NewNop())

	ctx := context.Background()
	_, err := c.Certificates.Create(ctx, &certificates.Certificate{OrderID: 1, ProductID: 5, ParticipantEmail: "a@b.com"})
	require.NoError(t, err)

	orderID := int64(1)
	out, err := c.Dispatcher.Execute(ctx, lookup.SearchRequest{OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Success)

	created, err := c.Idempotency.CreateIfNotExists(ctx, "k", 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, db.Len("cb-idempotency-test"))
}

func TestBuild_PublisherIsOptional(t *testing.T) {
	cfg := testConfig()
	c := Build(cfg, &aws.AWSClients{}, zap.NewNop())
	assert.Nil(t, c.Registration.Publisher)

	cfg.BuilderQueueURL = "https://sqs.local/queue"
	c = Build(cfg, &aws.AWSClients{}, zap.NewNop())
	assert.NotNil(t, c.Registration.Publisher)

	hc := c.HandlerConfig(cfg, zap.NewNop())
	assert.Equal(t, "/api/v1", hc.Prefix)
	assert.NotNil(t, hc.Idempotency)
}
