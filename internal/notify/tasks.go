// Package notify delivers transactional email for domain events. Events are
// turned into asynq tasks on emit and processed by the worker binary, so a
// slow or failing mail provider never blocks an API request.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type identifiers routed through the asynq queue.
const (
	TaskEmailOrderCreated   = "email:order_created"
	TaskEmailOrderStatus    = "email:order_status"
	TaskEmailCustomerStatus = "email:customer_status"
)

// OrderCreatedPayload carries everything the order confirmation email needs.
type OrderCreatedPayload struct {
	OrderID       string `json:"orderId"`
	Email         string `json:"email"`
	Currency      string `json:"currency"`
	Total         int64  `json:"total"`
	ReverseCharge bool   `json:"reverseCharge"`
}

// OrderStatusPayload is sent when an order moves to a new fulfilment status.
type OrderStatusPayload struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
	Status  string `json:"status"`
}

// CustomerStatusPayload is sent when a B2B application is decided.
type CustomerStatusPayload struct {
	CustomerID  string `json:"customerId"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	Status      string `json:"status"`
}

// NewTask builds an asynq task of the given type from a JSON payload.
func NewTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notify: encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data, asynq.MaxRetry(5)), nil
}
