package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
)

// Store encapsulates operations on the orders table.
type Store struct {
	store     *tablestore.Store
	tableName string
	logger    *zap.Logger
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(store *tablestore.Store, tableName string, logger *zap.Logger) *Store {
	return &Store{
		store:     store,
		tableName: tableName,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Create writes o, stamping CreatedAt when empty.
func (s *Store) Create(ctx context.Context, o *Order) (*Order, error) {
	if o.CreatedAt == "" {
		o.CreatedAt = s.nowFunc().UTC().Format(time.RFC3339)
	}
	if err := s.store.Put(ctx, o.item(), s.tableName); err != nil {
		return nil, fmt.Errorf("create order %d: %w", o.OrderID, err)
	}
	s.logger.Info("order created", zap.Int64("order_id", o.OrderID))
	return o, nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID int64) (*Order, error) {
	item, found, err := s.store.Get(ctx, map[string]any{"order_id": orderID}, s.tableName)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if !found {
		return nil, nil
	}
	var o Order
	if err := tablestore.Hydrate(item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Exists reports whether orderID is stored. It queries the key directly;
// storage failures read as false.
func (s *Store) Exists(ctx context.Context, orderID int64) bool {
	items, err := s.store.Query(ctx, s.tableName, "order_id = :order_id", map[string]any{":order_id": orderID})
	if err != nil {
		s.logger.Error("order exists check failed", zap.Int64("order_id", orderID), zap.Error(err))
		return false
	}
	return len(items) > 0
}

// GetByParticipantEmail scans for the orders of one attendee.
func (s *Store) GetByParticipantEmail(ctx context.Context, email string) ([]Order, error) {
	return s.scan(ctx, "participant_email = :email", map[string]any{":email": email})
}

// GetByProductID scans for the orders of one product.
func (s *Store) GetByProductID(ctx context.Context, productID int64) ([]Order, error) {
	return s.scan(ctx, "product_id = :product_id", map[string]any{":product_id": productID})
}

func (s *Store) scan(ctx context.Context, filter string, values map[string]any) ([]Order, error) {
	items, err := s.store.Scan(ctx, s.tableName, filter, values)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	out := make([]Order, 0, len(items))
	for _, item := range items {
		var o Order
		if err := tablestore.Hydrate(item, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
