package service

import (
	"context"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/repository"

	"go.uber.org/zap"
)

// CreatePaymentInput carries the fields of a payment record
type CreatePaymentInput struct {
	BookingID     string
	Amount        float64
	TransactionID string
	Method        domain.PaymentMethod
	PaymentDate   time.Time
}

// PaymentService defines the interface for the payment ledger
type PaymentService interface {
	Create(ctx context.Context, actor *domain.User, in CreatePaymentInput) (*domain.Payment, error)
	List(ctx context.Context, actor *domain.User) ([]*domain.Payment, error)
}

type paymentService struct {
	payments repository.PaymentRepository
	bookings repository.BookingRepository
	logger   *zap.Logger
}

// NewPaymentService creates a new instance of PaymentService
func NewPaymentService(payments repository.PaymentRepository, bookings repository.BookingRepository, logger *zap.Logger) PaymentService {
	return &paymentService{payments: payments, bookings: bookings, logger: logger}
}

// Create records a payment against a booking. The booking's own payment
// status is not changed.
func (s *paymentService) Create(ctx context.Context, actor *domain.User, in CreatePaymentInput) (*domain.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.BookingID == "" || strings.TrimSpace(in.TransactionID) == "" {
		return nil, domain.InvalidArgument("booking and transactionId are required")
	}
	if in.Amount <= 0 {
		return nil, domain.InvalidArgument("amount must be greater than zero")
	}
	if !in.Method.Valid() {
		return nil, domain.InvalidArgument("paymentMethod must be card, UPI or cash")
	}

	booking, err := s.bookings.FindByID(ctx, in.BookingID)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	if !booking.OwnedBy(actor) && !actor.HasRole(domain.RoleAdmin, domain.RoleProvider) {
		return nil, domain.Forbidden("access denied")
	}

	now := time.Now().UTC()
	if in.PaymentDate.IsZero() {
		in.PaymentDate = now
	}
	payment := &domain.Payment{
		BookingID:     booking.ID,
		UserID:        actor.ID,
		Amount:        in.Amount,
		TransactionID: strings.TrimSpace(in.TransactionID),
		Method:        in.Method,
		PaymentDate:   in.PaymentDate.UTC(),
		RefundStatus:  domain.RefundNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, storeError(err, "payment")
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("booking_id", booking.ID),
		zap.Float64("amount", payment.Amount),
	)
	return payment, nil
}

// List returns the actor's payments, or every payment for an admin
func (s *paymentService) List(ctx context.Context, actor *domain.User) ([]*domain.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		payments []*domain.Payment
		err      error
	)
	if actor.HasRole(domain.RoleAdmin) {
		payments, err = s.payments.List(ctx)
	} else {
		payments, err = s.payments.ListByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, storeError(err, "payment")
	}
	return payments, nil
}
