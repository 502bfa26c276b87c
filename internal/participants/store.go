// Package participants stores attendees, one record per email address.
package participants

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
)

// Participant is the item stored in the participants table.
type Participant struct {
	ID        string `dynamodbav:"id"` // PK, uuid
	FirstName string `dynamodbav:"first_name"`
	LastName  string `dynamodbav:"last_name"`
	Email     string `dynamodbav:"email"`
	Phone     string `dynamodbav:"phone"`
	CPF       string `dynamodbav:"cpf"`
	City      string `dynamodbav:"city"`
}

// Store reads and writes the participants table.
type Store struct {
	store     *tablestore.Store
	tableName string
	logger    *zap.Logger
}

func NewStore(store *tablestore.Store, tableName string, logger *zap.Logger) *Store {
	return &Store{store: store, tableName: tableName, logger: logger}
}

// Create writes p, assigning an id when it has none.
func (s *Store) Create(ctx context.Context, p *Participant) (*Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	item := map[string]any{
		"id":         p.ID,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
		"phone":      p.Phone,
		"cpf":        p.CPF,
		"city":       p.City,
	}
	if err := s.store.Put(ctx, item, s.tableName); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	s.logger.Info("participant created", zap.String("id", p.ID))
	return p, nil
}

// GetByEmail returns the first participant with email, or (nil, nil).
func (s *Store) GetByEmail(ctx context.Context, email string) (*Participant, error) {
	return s.first(ctx, "email = :email", map[string]any{":email": email})
}

// GetByCPF returns the first participant with the document cpf, or (nil, nil).
func (s *Store) GetByCPF(ctx context.Context, cpf string) (*Participant, error) {
	return s.first(ctx, "cpf = :cpf", map[string]any{":cpf": cpf})
}

// EmailExists reports whether a participant uses email. Storage failures
// read as false.
func (s *Store) EmailExists(ctx context.Context, email string) bool {
	p, err := s.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("participant email check failed", zap.Error(err))
		return false
	}
	return p != nil
}

func (s *Store) first(ctx context.Context, filter string, values map[string]any) (*Participant, error) {
	items, err := s.store.Scan(ctx, s.tableName, filter, values)
	if err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	var p Participant
	if err := tablestore.Hydrate(items[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}
