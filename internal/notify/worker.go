package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/agroflight/backend-shop/internal/common"
)

// Worker processes queued email tasks. Disabled delivery drops messages
// after logging instead of retrying them forever.
type Worker struct {
	Mail    common.EmailSender
	Enabled bool
	From    string
	Logger  zerolog.Logger
}

// Mux returns the task router for the asynq server.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailOrderCreated, w.HandleOrderCreated)
	mux.HandleFunc(TaskEmailOrderStatus, w.HandleOrderStatus)
	mux.HandleFunc(TaskEmailCustomerStatus, w.HandleCustomerStatus)
	return mux
}

// HandleOrderCreated sends the order confirmation email.
func (w *Worker) HandleOrderCreated(_ context.Context, task *asynq.Task) error {
	var payload OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("order created: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.Email) == "" {
		return nil
	}
	body := fmt.Sprintf("<p>Thank you for your order <strong>%s</strong>.</p><p>Order total: %s %s.</p>",
		payload.OrderID, formatMinor(payload.Total), payload.Currency)
	if payload.ReverseCharge {
		body += "<p>VAT reverse charged: the amount shown is net, VAT is accounted for by the buyer.</p>"
	}
	return w.send(payload.Email, "Order received", body)
}

// HandleOrderStatus sends the fulfilment status update email.
func (w *Worker) HandleOrderStatus(_ context.Context, task *asynq.Task) error {
	var payload OrderStatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("order status: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.Email) == "" {
		return nil
	}
	body := fmt.Sprintf("<p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>", payload.OrderID, payload.Status)
	return w.send(payload.Email, "Order update", body)
}

// HandleCustomerStatus sends the B2B application decision email.
func (w *Worker) HandleCustomerStatus(_ context.Context, task *asynq.Task) error {
	var payload CustomerStatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("customer status: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.Email) == "" {
		return nil
	}
	var body string
	switch payload.Status {
	case "approved":
		body = fmt.Sprintf("<p>The business account for <strong>%s</strong> has been approved. Your negotiated prices are now active.</p>", payload.CompanyName)
	case "rejected":
		body = fmt.Sprintf("<p>The business account application for <strong>%s</strong> was declined.</p>", payload.CompanyName)
	default:
		body = fmt.Sprintf("<p>The business account for <strong>%s</strong> is now %s.</p>", payload.CompanyName, payload.Status)
	}
	return w.send(payload.Email, "Business account update", body)
}

func (w *Worker) send(to, subject, body string) error {
	if !w.Enabled || w.Mail == nil {
		w.Logger.Debug().Str("to", to).Str("subject", subject).Msg("email delivery disabled, dropping message")
		return nil
	}
	if err := w.Mail.Send(to, subject, body); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}

// formatMinor renders minor units as a decimal amount with two places.
func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
