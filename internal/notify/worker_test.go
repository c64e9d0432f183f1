package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/agroflight/backend-shop/internal/common"
)

func newTask(t *testing.T, taskType string, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, data)
}

func TestHandleOrderCreated(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, Enabled: true, Logger: zerolog.Nop()}

	task := newTask(t, TaskEmailOrderCreated, OrderCreatedPayload{
		OrderID:  "a3f1",
		Email:    "buyer@agro.example",
		Currency: "PLN",
		Total:    254_900,
	})
	require.NoError(t, w.HandleOrderCreated(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "buyer@agro.example", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].HTML, "2549.00 PLN")
}

func TestHandleOrderCreatedReverseCharge(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, Enabled: true, Logger: zerolog.Nop()}

	task := newTask(t, TaskEmailOrderCreated, OrderCreatedPayload{
		OrderID:       "a3f1",
		Email:         "einkauf@agro.example",
		Currency:      "EUR",
		Total:         201_900,
		ReverseCharge: true,
	})
	require.NoError(t, w.HandleOrderCreated(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Contains(t, mail.Outbox[0].HTML, "reverse charged")
}

func TestHandleCustomerStatusApproved(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, Enabled: true, Logger: zerolog.Nop()}

	task := newTask(t, TaskEmailCustomerStatus, CustomerStatusPayload{
		Email:       "einkauf@agro.example",
		CompanyName: "AgroTech GmbH",
		Status:      "approved",
	})
	require.NoError(t, w.HandleCustomerStatus(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Contains(t, mail.Outbox[0].HTML, "approved")
	require.Contains(t, mail.Outbox[0].HTML, "AgroTech GmbH")
}

func TestDisabledWorkerDropsMessages(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, Enabled: false, Logger: zerolog.Nop()}

	task := newTask(t, TaskEmailOrderStatus, OrderStatusPayload{
		OrderID: "a3f1",
		Email:   "buyer@agro.example",
		Status:  "shipped",
	})
	require.NoError(t, w.HandleOrderStatus(context.Background(), task))
	require.Empty(t, mail.Outbox)
}

func TestMissingRecipientIsNotRetried(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, Enabled: true, Logger: zerolog.Nop()}

	task := newTask(t, TaskEmailOrderCreated, OrderCreatedPayload{OrderID: "a3f1"})
	require.NoError(t, w.HandleOrderCreated(context.Background(), task))
	require.Empty(t, mail.Outbox)
}
