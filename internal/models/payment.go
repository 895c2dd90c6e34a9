package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentOrderStatus string

const (
	PaymentOrderStatusCreated PaymentOrderStatus = "created"
	PaymentOrderStatusPaid    PaymentOrderStatus = "paid"
)

// PaymentOrder mirrors a Razorpay order we created for a subscription
// checkout. Amount is stored in paise.
type PaymentOrder struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	ProviderOrderID string             `json:"provider_order_id"`
	AmountPaise     int64              `json:"amount_paise"`
	Currency        string             `json:"currency"`
	Receipt         string             `json:"receipt"`
	Status          PaymentOrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
}
