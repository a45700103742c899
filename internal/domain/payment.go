package domain

import "time"

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "UPI"
	MethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodUPI || m == MethodCash
}

type RefundStatus string

const (
	RefundNone    RefundStatus = "not_refunded"
	RefundPartial RefundStatus = "partial"
	RefundFull    RefundStatus = "full"
)

// Payment records a transaction against a booking. It is not reconciled
// with Booking.PaymentStatus.
type Payment struct {
	ID            string        `json:"id"`
	BookingID     string        `json:"booking"`
	UserID        string        `json:"user"`
	Amount        float64       `json:"amount"`
	TransactionID string        `json:"transactionId"`
	Method        PaymentMethod `json:"paymentMethod"`
	PaymentDate   time.Time     `json:"paymentDate"`
	RefundStatus  RefundStatus  `json:"refundStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
