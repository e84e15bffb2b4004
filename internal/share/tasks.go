package share

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskShareReceipt is the asynq task type for receipt delivery.
const TaskShareReceipt = "share:receipt"

// ReceiptPayload is the task payload for a queued receipt delivery.
type ReceiptPayload struct {
	Channel      string `json:"channel"`
	MobileNo     string `json:"mobileNo,omitempty"`
	Email        string `json:"email,omitempty"`
	CustomerName string `json:"customerName"`
	InvoiceID    string `json:"invoiceId"`
	Message      string `json:"message,omitempty"`
}

// NewReceiptTask builds the asynq task for a receipt delivery.
func NewReceiptTask(p ReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShareReceipt, data), nil
}
