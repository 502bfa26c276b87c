package products

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
	"github.com/imrishuroy/certified-builder-api/internal/tablestore/tablestoretest"
)

func TestProducts(t *testing.T) {
	fake := tablestoretest.New().AddTable("products", "product_id")
	s := NewStore(tablestore.New(fake, zap.NewNop()), "products", zap.NewNop())
	ctx := context.Background()

	p := &Product{ProductID: 316, ProductName: "Tech Floripa Meetup", CertificateLogo: "logo.png"}
	_, err := s.Create(ctx, p)
	require.NoError(t, err)

	got, err := s.Get(ctx, 316)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *p, *got)

	assert.True(t, s.Exists(ctx, 316))
	assert.False(t, s.Exists(ctx, 317))

	byName, err := s.GetByName(ctx, "Tech Floripa Meetup")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	fake.Errors["GetItem"] = errors.New("boom")
	assert.False(t, s.Exists(ctx, 316))
}
