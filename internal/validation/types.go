package validation

import "strings"

// CreateCertificateRequest is the payload for POST /certificate/create
type CreateCertificateRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"` // event product to register
}

// FetchQuery carries the optional filters of GET /certificate/fetch.
// Absent parameters stay nil; which combination is allowed is decided by
// the lookup dispatcher, not here.
type FetchQuery struct {
	OrderID   *int64  `form:"order_id" validate:"omitempty,gt=0"`
	Email     *string `form:"email" validate:"omitempty"`
	ProductID *int64  `form:"product_id" validate:"omitempty,gt=0"`
}

// Normalize trims the email and treats a blank one as absent.
func (q *FetchQuery) Normalize() {
	if q.Email == nil {
		return
	}
	e := strings.TrimSpace(*q.Email)
	if e == "" {
		q.Email = nil
		return
	}
	q.Email = &e
}

// DownloadQuery is the query of GET /certificate/download
type DownloadQuery struct {
	ID string `form:"id" validate:"required,uuid"`
}
