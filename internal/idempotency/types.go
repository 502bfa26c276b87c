package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// IdempotencyRecord is the shape persisted in the idempotency DynamoDB table.
// One record guards one create request.
type IdempotencyRecord struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	ProductID      int64     `dynamodbav:"product_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`   // registration result JSON
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 200
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}
