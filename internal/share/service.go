package share

import (
	"context"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/events"
)

// Channels the backend can deliver receipts over.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
)

// Service enqueues receipt deliveries. Delivery itself happens on the worker
// so a slow gateway never blocks the cashier.
type Service struct {
	Client   *asynq.Client
	Queue    string
	MaxRetry int
	Events   *events.Bus
}

// Enqueue validates the request and queues the delivery task.
func (s *Service) Enqueue(ctx context.Context, p ReceiptPayload) error {
	p.Channel = strings.ToLower(strings.TrimSpace(p.Channel))
	switch p.Channel {
	case ChannelWhatsApp, ChannelSMS:
		if p.MobileNo == "" {
			return common.ValidationError("mobile number is required for this channel", nil)
		}
	case ChannelEmail:
		if p.Email == "" {
			return common.ValidationError("email is required for this channel", nil)
		}
	default:
		return common.ValidationError("unsupported share channel", map[string]any{
			"channels": []string{ChannelWhatsApp, ChannelSMS, ChannelEmail},
		})
	}
	if p.InvoiceID == "" {
		return common.ValidationError("invoiceId is required", nil)
	}

	task, err := NewReceiptTask(p)
	if err != nil {
		return err
	}
	if _, err := s.Client.EnqueueContext(ctx, task, asynq.Queue(s.Queue), asynq.MaxRetry(s.MaxRetry)); err != nil {
		return common.ExternalError("unable to queue receipt delivery", err)
	}
	s.Events.Emit(ctx, events.TopicShareRequested, map[string]any{
		"channel":   p.Channel,
		"invoiceId": p.InvoiceID,
	})
	return nil
}
