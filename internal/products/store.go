// Package products stores the events certificates are issued for.
package products

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/tablestore"
)

// Product is the item stored in the products table.
type Product struct {
	ProductID             int64  `dynamodbav:"product_id"` // PK
	ProductName           string `dynamodbav:"product_name"`
	CertificateDetails    string `dynamodbav:"certificate_details"`
	CertificateLogo       string `dynamodbav:"certificate_logo"`
	CertificateBackground string `dynamodbav:"certificate_background"`
	CheckinLatitude       string `dynamodbav:"checkin_latitude"`
	CheckinLongitude      string `dynamodbav:"checkin_longitude"`
	TimeCheckin           string `dynamodbav:"time_checkin"`
}

// Store reads and writes the products table.
type Store struct {
	store     *tablestore.Store
	tableName string
	logger    *zap.Logger
}

func NewStore(store *tablestore.Store, tableName string, logger *zap.Logger) *Store {
	return &Store{store: store, tableName: tableName, logger: logger}
}

func (s *Store) Create(ctx context.Context, p *Product) (*Product, error) {
	item := map[string]any{
		"product_id":             p.ProductID,
		"product_name":           p.ProductName,
		"certificate_details":    p.CertificateDetails,
		"certificate_logo":       p.CertificateLogo,
		"certificate_background": p.CertificateBackground,
		"checkin_latitude":       p.CheckinLatitude,
		"checkin_longitude":      p.CheckinLongitude,
		"time_checkin":           p.TimeCheckin,
	}
	if err := s.store.Put(ctx, item, s.tableName); err != nil {
		return nil, fmt.Errorf("create product %d: %w", p.ProductID, err)
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ProductID))
	return p, nil
}

// Get returns the product or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, productID int64) (*Product, error) {
	item, found, err := s.store.Get(ctx, map[string]any{"product_id": productID}, s.tableName)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	if !found {
		return nil, nil
	}
	var p Product
	if err := tablestore.Hydrate(item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Exists reports whether productID is stored. Storage failures read as false.
func (s *Store) Exists(ctx context.Context, productID int64) bool {
	p, err := s.Get(ctx, productID)
	if err != nil {
		s.logger.Error("product exists check failed", zap.Int64("product_id", productID), zap.Error(err))
		return false
	}
	return p != nil
}

// GetByName scans for products with an exact name.
func (s *Store) GetByName(ctx context.Context, name string) ([]Product, error) {
	items, err := s.store.Scan(ctx, s.tableName, "product_name = :product_name", map[string]any{":product_name": name})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	out := make([]Product, 0, len(items))
	for _, item := range items {
		var p Product
		if err := tablestore.Hydrate(item, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
