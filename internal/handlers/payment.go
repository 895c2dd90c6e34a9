package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/whatsup-app/whatsup/internal/models"
	"github.com/whatsup-app/whatsup/internal/services"
)

type PaymentHandler struct {
	paymentService services.PaymentServiceInterface
}

func NewPaymentHandler(paymentService services.PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type CreateOrderRequest struct {
	Amount int64 `json:"amount"` // rupees
}

type CreateOrderResponse struct {
	Order *models.PaymentOrder `json:"order"`
	KeyID string               `json:"key_id"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type VerifyPaymentResponse struct {
	Order   *models.PaymentOrder `json:"order"`
	Message string               `json:"message"`
}

// CreateOrder handles POST /api/payments/orders.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.paymentService.CreateOrder(r.Context(), user.ID, req.Amount)
	if errors.Is(err, services.ErrInvalidAmount) {
		writeError(w, http.StatusBadRequest, "Amount must be a positive number of rupees")
		return
	}
	if errors.Is(err, services.ErrPaymentUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Payment provider unavailable, try again later")
		return
	}
	if err != nil {
		log.Printf("Error creating payment order: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, CreateOrderResponse{Order: order, KeyID: h.paymentService.KeyID()})
}

// VerifyPayment handles POST /api/payments/verify.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "Missing payment verification fields")
		return
	}

	order, err := h.paymentService.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature)
	if errors.Is(err, services.ErrSignatureMismatch) {
		writeError(w, http.StatusBadRequest, "Payment verification failed")
		return
	}
	if errors.Is(err, services.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Printf("Error verifying payment: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, VerifyPaymentResponse{Order: order, Message: "Payment verified"})
}
