package participants

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

func TestParticipants(t *testing.T) {
	fake := tablestoretest.New().AddTable("participants", "id")
	s := NewStore(tablestore.New(fake, zap.NewNop()), "participants", zap.NewNop())
	ctx := context.Background()

	p, err := s.Create(ctx, &Participant{FirstName: "Ana", LastName: "Souza", Email: "a@b.com", CPF: "123"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := s.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *p, *got)

	byCPF, err := s.GetByCPF(ctx, "123")
	require.NoError(t, err)
	require.NotNil(t, byCPF)
	assert.Equal(t, p.ID, byCPF.ID)

	none, err := s.GetByEmail(ctx, "x@y.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.True(t, s.EmailExists(ctx, "a@b.com"))
	assert.False(t, s.EmailExists(ctx, "x@y.com"))

	fake.Errors["Scan"] = errors.New("boom")
	assert.False(t, s.EmailExists(ctx, "a@b.com"))
	_, err = s.GetByEmail(ctx, "a@b.com")
	require.Error(t, err)
}
