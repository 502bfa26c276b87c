// Package lookup routes a certificate search to exactly one repository
// access pattern.
//
// Strategies form a closed table evaluated in fixed order. The email and
// product id pair is checked first and ignores order id, so a request with
// all three fields set is served by email and product id. The single-field
// strategies each require the other two fields to be unset. Every other
// shape (nothing set, order id with only email, order id with only product
// id) matches none and is rejected by the Dispatcher.
package lookup

import (
	"context"

	"github.com/imrishuroy/certified-builder-api/internal/certificates"
)

// Repository is the subset of the certificate repository lookups use.
type Repository interface {
	GetByOrderID(ctx context.Context, orderID int64) ([]certificates.Certificate, error)
	GetByParticipantEmail(ctx context.Context, email string) ([]certificates.Certificate, error)
	GetByProductID(ctx context.Context, productID int64) ([]certificates.Certificate, error)
	GetByEmailAndProductID(ctx context.Context, email string, productID int64) ([]certificates.Certificate, error)
}

// Strategy names.
const (
	ByEmailAndProductID = "email_and_product_id"
	ByOrderID           = "order_id"
	ByEmail             = "email"
	ByProductID         = "product_id"
)

// Strategy pairs a request predicate with the lookup it selects and the
// negative projection returned when that lookup finds nothing.
type Strategy struct {
	Name      string
	CanHandle func(SearchRequest) bool
	Fetch     func(context.Context, Repository, SearchRequest) ([]certificates.Certificate, error)
	NotFound  func(SearchRequest) Projection
}

var strategies = []Strategy{
	{
		Name: ByEmailAndProductID,
		CanHandle: func(r SearchRequest) bool {
			return r.hasEmail() && r.hasProductID()
		},
		Fetch: func(ctx context.Context, repo Repository, r SearchRequest) ([]certificates.Certificate, error) {
			return repo.GetByEmailAndProductID(ctx, *r.Email, *r.ProductID)
		},
		NotFound: func(r SearchRequest) Projection {
			return Projection{Email: r.Email, ProductID: r.ProductID}
		},
	},
	{
		Name: ByOrderID,
		CanHandle: func(r SearchRequest) bool {
			return r.hasOrderID() && !r.hasEmail() && !r.hasProductID()
		},
		Fetch: func(ctx context.Context, repo Repository, r SearchRequest) ([]certificates.Certificate, error) {
			return repo.GetByOrderID(ctx, *r.OrderID)
		},
		NotFound: func(r SearchRequest) Projection {
			return Projection{OrderID: r.OrderID}
		},
	},
	{
		Name: ByEmail,
		CanHandle: func(r SearchRequest) bool {
			return r.hasEmail() && !r.hasProductID() && !r.hasOrderID()
		},
		Fetch: func(ctx context.Context, repo Repository, r SearchRequest) ([]certificates.Certificate, error) {
			return repo.GetByParticipantEmail(ctx, *r.Email)
		},
		NotFound: func(r SearchRequest) Projection {
			return Projection{Email: r.Email}
		},
	},
	{
		Name: ByProductID,
		CanHandle: func(r SearchRequest) bool {
			return r.hasProductID() && !r.hasEmail() && !r.hasOrderID()
		},
		Fetch: func(ctx context.Context, repo Repository, r SearchRequest) ([]certificates.Certificate, error) {
			return repo.GetByProductID(ctx, *r.ProductID)
		},
		NotFound: func(r SearchRequest) Projection {
			return Projection{ProductID: r.ProductID}
		},
	},
}

// Strategies returns the strategy names in evaluation order.
func Strategies() []string {
	out := make([]string, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, s.Name)
	}
	return out
}
