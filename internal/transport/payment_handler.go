package transport

import (
	"net/http"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreatePaymentRequest is the payment record payload
type CreatePaymentRequest struct {
	Booking       string     `json:"booking" validate:"required"`
	Amount        float64    `json:"amount" validate:"gt=0"`
	TransactionID string     `json:"transactionId" validate:"required"`
	PaymentMethod string     `json:"paymentMethod" validate:"required,oneof=card UPI cash"`
	PaymentDate   *time.Time `json:"paymentDate"`
}

// PaymentHandler serves the payment ledger endpoints
type PaymentHandler struct {
	payments service.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(g.Auth)
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	in := service.CreatePaymentInput{
		BookingID:     req.Booking,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
		Method:        domain.PaymentMethod(req.PaymentMethod),
	}
	if req.PaymentDate != nil {
		in.PaymentDate = *req.PaymentDate
	}

	payment, err := h.payments.Create(r.Context(), actor(r), in)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.List(r.Context(), actor(r))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, payments)
}
