package share

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/events"
	"github.com/danupratama/backend-kasir/internal/obs"
)

// Worker processes queued receipt deliveries against the ERP backend.
type Worker struct {
	ERP    erp.Client
	Events *events.Bus
	Log    zerolog.Logger
}

// HandleReceipt delivers one receipt. A failed or rejected delivery returns
// an error so asynq retries it with backoff.
func (w *Worker) HandleReceipt(ctx context.Context, task *asynq.Task) error {
	var p ReceiptPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// Malformed payloads can never succeed; skip retries.
		return fmt.Errorf("decode share payload: %w: %w", err, asynq.SkipRetry)
	}

	res, err := w.ERP.Share(ctx, erp.ShareRequest{
		Channel:      p.Channel,
		MobileNo:     p.MobileNo,
		Email:        p.Email,
		CustomerName: p.CustomerName,
		InvoiceID:    p.InvoiceID,
		Message:      p.Message,
	})
	if err != nil {
		countDelivery(p.Channel, "error")
		return fmt.Errorf("share receipt %s: %w", p.InvoiceID, err)
	}
	if !res.Ok() {
		countDelivery(p.Channel, "rejected")
		return fmt.Errorf("share receipt %s rejected: %s", p.InvoiceID, res.Error)
	}

	countDelivery(p.Channel, "success")
	w.Log.Info().Str("channel", p.Channel).Str("invoice_id", p.InvoiceID).Msg("receipt delivered")
	w.Events.Emit(ctx, events.TopicShareDelivered, map[string]any{
		"channel":   p.Channel,
		"invoiceId": p.InvoiceID,
	})
	return nil
}

// Register attaches the worker's handlers to the asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskShareReceipt, w.HandleReceipt)
}

func countDelivery(channel, result string) {
	if obs.ShareDeliveriesTotal != nil {
		obs.ShareDeliveriesTotal.WithLabelValues(channel, result).Inc()
	}
}
