package lookup

import (
	"fmt"
	"strings"
)

// SearchRequest carries the optional filters of a certificate search. A nil
// field is unset.
type SearchRequest struct {
	OrderID   *int64  `json:"order_id,omitempty"`
	Email     *string `json:"email,omitempty"`
	ProductID *int64  `json:"product_id,omitempty"`
}

func (r SearchRequest) hasOrderID() bool   { return r.OrderID != nil }
func (r SearchRequest) hasEmail() bool     { return r.Email != nil }
func (r SearchRequest) hasProductID() bool { return r.ProductID != nil }

// String lists the populated fields, e.g. "order_id=1, email=a@b.com".
func (r SearchRequest) String() string {
	var parts []string
	if r.OrderID != nil {
		parts = append(parts, fmt.Sprintf("order_id=%d", *r.OrderID))
	}
	if r.Email != nil {
		parts = append(parts, "email="+*r.Email)
	}
	if r.ProductID != nil {
		parts = append(parts, fmt.Sprintf("product_id=%d", *r.ProductID))
	}
	return strings.Join(parts, ", ")
}

// Projection is the read shape of a certificate. Unset fields encode as
// null.
type Projection struct {
	ID                  *string `json:"id"`
	OrderID             *int64  `json:"order_id"`
	ProductID           *int64  `json:"product_id"`
	ParticipantName     *string `json:"participant_name"`
	ParticipantEmail    *string `json:"participant_email"`
	ParticipantDocument *string `json:"participant_document"`
	CertificateURL      *string `json:"certificate_url"`
	CreatedAt           *string `json:"created_at"`
	UpdatedAt           *string `json:"updated_at"`
	Email               *string `json:"email"`
	Success             bool    `json:"success"`
}

// NoStrategyError is returned when no strategy accepts the request shape.
type NoStrategyError struct {
	OrderID   *int64
	Email     *string
	ProductID *int64
}

func (e *NoStrategyError) Error() string {
	switch {
	case e.OrderID != nil:
		return fmt.Sprintf("certificate not found for order_id: %d", *e.OrderID)
	case e.ProductID != nil:
		return fmt.Sprintf("certificate not found for product_id: %d", *e.ProductID)
	case e.Email != nil:
		return "certificate not found for email: " + *e.Email
	default:
		return "certificate not found"
	}
}

// Details returns the request fields carried by the error, keyed by their
// query parameter names.
func (e *NoStrategyError) Details() map[string]any {
	out := map[string]any{}
	if e.OrderID != nil {
		out["order_id"] = *e.OrderID
	}
	if e.Email != nil {
		out["email"] = *e.Email
	}
	if e.ProductID != nil {
		out["product_id"] = *e.ProductID
	}
	return out
}
