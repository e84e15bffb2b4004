package share_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/events"
	"github.com/danupratama/backend-kasir/internal/share"
)

type shareERP struct {
	erp.Mock
	result erp.ShareResult
	err    error
	last   erp.ShareRequest
}

func (s *shareERP) Share(_ context.Context, req erp.ShareRequest) (erp.ShareResult, error) {
	s.last = req
	return s.result, s.err
}

func newTask(t *testing.T, p share.ReceiptPayload) *asynq.Task {
	t.Helper()
	task, err := share.NewReceiptTask(p)
	require.NoError(t, err)
	return task
}

func TestHandleReceiptDelivers(t *testing.T) {
	backend := &shareERP{result: erp.ShareResult{Status: "success"}}
	w := &share.Worker{ERP: backend, Log: zerolog.Nop()}

	err := w.HandleReceipt(context.Background(), newTask(t, share.ReceiptPayload{
		Channel:      "whatsapp",
		MobileNo:     "+628123456789",
		CustomerName: "Budi Santoso",
		InvoiceID:    "POS-INV-00001",
	}))
	require.NoError(t, err)
	require.Equal(t, "whatsapp", backend.last.Channel)
	require.Equal(t, "POS-INV-00001", backend.last.InvoiceID)
}

func TestHandleReceiptRetriesOnBackendError(t *testing.T) {
	backend := &shareERP{err: errors.New("gateway timeout")}
	w := &share.Worker{ERP: backend, Log: zerolog.Nop()}

	err := w.HandleReceipt(context.Background(), newTask(t, share.ReceiptPayload{
		Channel:   "sms",
		MobileNo:  "+628123456789",
		InvoiceID: "POS-INV-00002",
	}))
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleReceiptRetriesOnRejection(t *testing.T) {
	backend := &shareERP{result: erp.ShareResult{Status: "error", Error: "invalid number"}}
	w := &share.Worker{ERP: backend, Log: zerolog.Nop()}

	err := w.HandleReceipt(context.Background(), newTask(t, share.ReceiptPayload{
		Channel:   "whatsapp",
		MobileNo:  "+628123456789",
		InvoiceID: "POS-INV-00003",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid number")
}

func TestHandleReceiptSkipsRetryOnMalformedPayload(t *testing.T) {
	w := &share.Worker{ERP: &shareERP{}, Log: zerolog.Nop()}
	task := asynq.NewTask(share.TaskShareReceipt, []byte("{not json"))

	err := w.HandleReceipt(context.Background(), task)
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestEventsCarryDeliveryTopic(t *testing.T) {
	backend := &shareERP{result: erp.ShareResult{Status: "success"}}
	bus := &events.Bus{Log: zerolog.Nop()}
	rec := &recorder{}
	bus.Subscribe(rec)
	w := &share.Worker{ERP: backend, Events: bus, Log: zerolog.Nop()}

	require.NoError(t, w.HandleReceipt(context.Background(), newTask(t, share.ReceiptPayload{
		Channel:   "email",
		Email:     "budi@example.com",
		InvoiceID: "POS-INV-00004",
	})))
	require.Len(t, rec.seen, 1)
	require.Equal(t, events.TopicShareDelivered, rec.seen[0].Topic)
	data, err := json.Marshal(rec.seen[0].Payload)
	require.NoError(t, err)
	require.Contains(t, string(data), "POS-INV-00004")
}

type recorder struct {
	seen []events.Event
}

func (r *recorder) Notify(_ context.Context, evt events.Event) error {
	r.seen = append(r.seen, evt)
	return nil
}
