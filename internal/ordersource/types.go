package ordersource

import "strings"

// TechOrder is one attendee order as returned by the order source.
type TechOrder struct {
	OrderID               int64  `json:"order_id" validate:"required,gt=0"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email" validate:"required"`
	Phone                 string `json:"phone"`
	CPF                   string `json:"cpf"`
	City                  string `json:"city"`
	ProductID             int64  `json:"product_id" validate:"required,gt=0"`
	ProductName           string `json:"product_name"`
	CertificateDetails    string `json:"certificate_details"`
	CertificateLogo       string `json:"certificate_logo"`
	CertificateBackground string `json:"certificate_background"`
	OrderDate             string `json:"order_date"`
	CheckinLatitude       string `json:"checkin_latitude"`
	CheckinLongitude      string `json:"checkin_longitude"`
	TimeCheckin           string `json:"time_checkin"`
}

// CheckedIn reports whether the attendee checked in at the event. Only
// checked-in orders earn a certificate.
func (o TechOrder) CheckedIn() bool {
	return strings.TrimSpace(o.TimeCheckin) != ""
}
