// Package certificates stores certificate records and answers the lookups
// the fetch endpoint needs.
//
// Lookups other than GetByID scan the whole table with an equality filter:
// the table is keyed by id only, so their cost grows with table size.
package certificates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
)

// Repository reads and writes the certificates table.
type Repository struct {
	store  *tablestore.Store
	table  string
	logger *zap.Logger
}

// NewRepository returns a Repository bound to table.
func NewRepository(store *tablestore.Store, table string, logger *zap.Logger) *Repository {
	return &Repository{store: store, table: table, logger: logger}
}

// Create writes c, assigning a new id when it has none. It overwrites any
// record with the same id; callers check for an existing certificate first.
func (r *Repository) Create(ctx context.Context, c *Certificate) (*Certificate, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.store.Put(ctx, c.Item(), r.table); err != nil {
		return nil, fmt.Errorf("create certificate %s: %w", c.ID, err)
	}
	r.logger.Info("certificate created", zap.String("id", c.ID), zap.Int64("order_id", c.OrderID))
	return c, nil
}

// GetByID returns the certificate or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Certificate, error) {
	item, found, err := r.store.Get(ctx, map[string]any{"id": id}, r.table)
	if err != nil {
		return nil, fmt.Errorf("get certificate %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	var c Certificate
	if err := tablestore.Hydrate(item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAll returns every certificate.
func (r *Repository) GetAll(ctx context.Context) ([]Certificate, error) {
	return r.scan(ctx, "", nil)
}

// Update writes the non-nil fields of c onto the record at id and returns
// the stored result, or (nil, nil) when id does not exist. The id itself is
// never rewritten.
func (r *Repository) Update(ctx context.Context, id string, c *Certificate) (*Certificate, error) {
	fields := c.Item()
	delete(fields, "id")
	for k, v := range fields {
		if p, ok := v.(*string); ok && p == nil {
			delete(fields, k)
		}
	}

	item, found, err := r.store.Update(ctx, map[string]any{"id": id}, fields, r.table)
	if err != nil {
		return nil, fmt.Errorf("update certificate %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	var out Certificate
	if err := tablestore.Hydrate(item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the certificate. It reports false only on storage failure.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	ok := r.store.Delete(ctx, map[string]any{"id": id}, r.table)
	if ok {
		r.logger.Info("certificate deleted", zap.String("id", id))
	}
	return ok
}

// Exists reports whether id is stored. Storage failures read as false.
func (r *Repository) Exists(ctx context.Context, id string) bool {
	_, found, err := r.store.Get(ctx, map[string]any{"id": id}, r.table)
	if err != nil {
		r.logger.Error("certificate exists check failed", zap.String("id", id), zap.Error(err))
		return false
	}
	return found
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID int64) ([]Certificate, error) {
	return r.scan(ctx, "order_id = :order_id", map[string]any{":order_id": orderID})
}

func (r *Repository) GetByParticipantEmail(ctx context.Context, email string) ([]Certificate, error) {
	return r.scan(ctx, "participant_email = :email", map[string]any{":email": email})
}

func (r *Repository) GetByProductID(ctx context.Context, productID int64) ([]Certificate, error) {
	return r.scan(ctx, "product_id = :product_id", map[string]any{":product_id": productID})
}

func (r *Repository) GetByEmailAndProductID(ctx context.Context, email string, productID int64) ([]Certificate, error) {
	return r.scan(ctx, "participant_email = :email AND product_id = :product_id", map[string]any{
		":email":      email,
		":product_id": productID,
	})
}

// GetSuccessfulCertificates returns certificates whose file was built.
func (r *Repository) GetSuccessfulCertificates(ctx context.Context) ([]Certificate, error) {
	return r.scan(ctx, "success = :success", map[string]any{":success": true})
}

func (r *Repository) scan(ctx context.Context, filter string, values map[string]any) ([]Certificate, error) {
	items, err := r.store.Scan(ctx, r.table, filter, values)
	if err != nil {
		return nil, fmt.Errorf("scan certificates: %w", err)
	}
	out := make([]Certificate, 0, len(items))
	for _, item := range items {
		var c Certificate
		if err := tablestore.Hydrate(item, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
