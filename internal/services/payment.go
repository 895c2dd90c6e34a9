package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	razorpay "github.com/razorpay/razorpay-go"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/models"
)

var (
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrInvalidAmount      = errors.New("invalid payment amount")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
	ErrPaymentUnavailable = errors.New("payment provider unavailable")
)

const paymentOrderColumns = "id, user_id, provider_order_id, amount_paise, currency, receipt, status, created_at, paid_at"

// orderCreator matches razorpay's Order resource.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentService creates Razorpay orders for subscription checkout and
// verifies the signature Razorpay's checkout posts back.
type PaymentService struct {
	db     DBConn
	orders orderCreator
	keyID  string
	secret string
}

func NewPaymentService(db DBConn, cfg *config.PaymentConfig) *PaymentService {
	client := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	return &PaymentService{
		db:     db,
		orders: client.Order,
		keyID:  cfg.RazorpayKeyID,
		secret: cfg.RazorpaySecret,
	}
}

// SetOrderClient swaps the Razorpay order resource. Tests use this to
// avoid the network.
func (s *PaymentService) SetOrderClient(c orderCreator) {
	s.orders = c
}

// KeyID is the public Razorpay key the frontend checkout needs.
func (s *PaymentService) KeyID() string {
	return s.keyID
}

// CreateOrder opens a Razorpay order for the given amount in rupees and
// records it locally as created.
func (s *PaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, amountRupees int64) (*models.PaymentOrder, error) {
	if amountRupees <= 0 {
		return nil, ErrInvalidAmount
	}
	amountPaise := amountRupees * 100

	receipt, err := generateReceipt()
	if err != nil {
		return nil, err
	}

	body, err := s.orders.Create(map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating razorpay order: %w", ErrPaymentUnavailable)
	}

	providerOrderID, ok := body["id"].(string)
	if !ok || providerOrderID == "" {
		return nil, fmt.Errorf("razorpay order response missing id: %w", ErrPaymentUnavailable)
	}

	order := &models.PaymentOrder{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO payment_orders (user_id, provider_order_id, amount_paise, currency, receipt, status)
		 VALUES ($1, $2, $3, 'INR', $4, 'created')
		 RETURNING `+paymentOrderColumns,
		userID, providerOrderID, amountPaise, receipt,
	).Scan(orderDests(order)...)
	if err != nil {
		return nil, fmt.Errorf("storing payment order: %w", err)
	}

	return order, nil
}

// VerifyPayment checks the checkout callback signature and marks the
// order paid. The signature is HMAC-SHA256 over "orderID|paymentID"
// keyed with the API secret, hex encoded.
func (s *PaymentService) VerifyPayment(ctx context.Context, providerOrderID, paymentID, signature string) (*models.PaymentOrder, error) {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrSignatureMismatch
	}

	order := &models.PaymentOrder{}
	err := s.db.QueryRow(ctx,
		`UPDATE payment_orders
		 SET status = 'paid', paid_at = NOW()
		 WHERE provider_order_id = $1
		 RETURNING `+paymentOrderColumns,
		providerOrderID,
	).Scan(orderDests(order)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("marking order paid: %w", err)
	}

	return order, nil
}

func generateReceipt() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating receipt: %w", err)
	}
	return "receipt_" + hex.EncodeToString(bytes), nil
}

func orderDests(o *models.PaymentOrder) []any {
	return []any{
		&o.ID, &o.UserID, &o.ProviderOrderID, &o.AmountPaise, &o.Currency,
		&o.Receipt, &o.Status, &o.CreatedAt, &o.PaidAt,
	}
}
