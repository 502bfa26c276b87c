package certificates

import (
	"strconv"

	"github.com/google/uuid"
)

var orderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("certified-builder-api/certificates/order"))

// IDForOrder returns the stable certificate id of an order. Registering the
// same order twice yields the same id.
func IDForOrder(orderID int64) string {
	return uuid.NewSHA1(orderNamespace, []byte(strconv.FormatInt(orderID, 10))).String()
}

// Certificate is the record stored in the certificates table. Participant,
// order and product fields are a snapshot taken when the order was
// registered.
type Certificate struct {
	ID             string  `dynamodbav:"id" json:"id"` // PK, uuid
	Success        bool    `dynamodbav:"success" json:"success"`
	CertificateKey *string `dynamodbav:"certificate_key" json:"certificate_key"`
	CertificateURL *string `dynamodbav:"certificate_url" json:"certificate_url"`
	GeneratedDate  *string `dynamodbav:"generated_date" json:"generated_date"`

	OrderID               int64  `dynamodbav:"order_id" json:"order_id"`
	OrderDate             string `dynamodbav:"order_date" json:"order_date"`
	ProductID             int64  `dynamodbav:"product_id" json:"product_id"`
	ProductName           string `dynamodbav:"product_name" json:"product_name"`
	CertificateDetails    string `dynamodbav:"certificate_details" json:"certificate_details"`
	CertificateLogo       string `dynamodbav:"certificate_logo" json:"certificate_logo"`
	CertificateBackground string `dynamodbav:"certificate_background" json:"certificate_background"`

	ParticipantEmail     string `dynamodbav:"participant_email" json:"participant_email"`
	ParticipantFirstName string `dynamodbav:"participant_first_name" json:"participant_first_name"`
	ParticipantLastName  string `dynamodbav:"participant_last_name" json:"participant_last_name"`
	ParticipantCPF       string `dynamodbav:"participant_cpf" json:"participant_cpf"`
	ParticipantPhone     string `dynamodbav:"participant_phone" json:"participant_phone"`
	ParticipantCity      string `dynamodbav:"participant_city" json:"participant_city"`
}

// HasKey reports whether a storage key is recorded for the rendered file.
func (c *Certificate) HasKey() bool {
	return c.CertificateKey != nil && *c.CertificateKey != ""
}

// Item returns the flat attribute map written to the table.
func (c *Certificate) Item() map[string]any {
	return map[string]any{
		"id":                     c.ID,
		"success":                c.Success,
		"certificate_key":        c.CertificateKey,
		"certificate_url":        c.CertificateURL,
		"generated_date":         c.GeneratedDate,
		"order_id":               c.OrderID,
		"order_date":             c.OrderDate,
		"product_id":             c.ProductID,
		"product_name":           c.ProductName,
		"certificate_details":    c.CertificateDetails,
		"certificate_logo":       c.CertificateLogo,
		"certificate_background": c.CertificateBackground,
		"participant_email":      c.ParticipantEmail,
		"participant_first_name": c.ParticipantFirstName,
		"participant_last_name":  c.ParticipantLastName,
		"participant_cpf":        c.ParticipantCPF,
		"participant_phone":      c.ParticipantPhone,
		"participant_city":       c.ParticipantCity,
	}
}
