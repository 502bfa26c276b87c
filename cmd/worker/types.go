package main

// WorkerMessage asks the worker to run registration for one product.
type WorkerMessage struct {
	ProductID     int64  `json:"product_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
