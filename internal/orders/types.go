package orders

// Order represents the item stored in the orders table: one attendee's
// ticket for one product, as reported by the order source.
type Order struct {
	OrderID               int64  `dynamodbav:"order_id"` // PK
	OrderDate             string `dynamodbav:"order_date"`
	ProductID             int64  `dynamodbav:"product_id"`
	ProductName           string `dynamodbav:"product_name"`
	CertificateDetails    string `dynamodbav:"certificate_details"`
	CertificateLogo       string `dynamodbav:"certificate_logo"`
	CertificateBackground string `dynamodbav:"certificate_background"`
	CheckinLatitude       string `dynamodbav:"checkin_latitude"`
	CheckinLongitude      string `dynamodbav:"checkin_longitude"`
	TimeCheckin           string `dynamodbav:"time_checkin"`
	ParticipantEmail      string `dynamodbav:"participant_email"`
	ParticipantFirstName  string `dynamodbav:"participant_first_name"`
	ParticipantLastName   string `dynamodbav:"participant_last_name"`
	ParticipantCPF        string `dynamodbav:"participant_cpf"`
	ParticipantPhone      string `dynamodbav:"participant_phone"`
	ParticipantCity       string `dynamodbav:"participant_city"`
	CreatedAt             string `dynamodbav:"created_at"` // RFC3339
}

func (o *Order) item() map[string]any {
	return map[string]any{
		"order_id":               o.OrderID,
		"order_date":             o.OrderDate,
		"product_id":             o.ProductID,
		"product_name":           o.ProductName,
		"certificate_details":    o.CertificateDetails,
		"certificate_logo":       o.CertificateLogo,
		"certificate_background": o.CertificateBackground,
		"checkin_latitude":       o.CheckinLatitude,
		"checkin_longitude":      o.CheckinLongitude,
		"time_checkin":           o.TimeCheckin,
		"participant_email":      o.ParticipantEmail,
		"participant_first_name": o.ParticipantFirstName,
		"participant_last_name":  o.ParticipantLastName,
		"participant_cpf":        o.ParticipantCPF,
		"participant_phone":      o.ParticipantPhone,
		"participant_city":       o.ParticipantCity,
		"created_at":             o.CreatedAt,
	}
}
