package domain

import "time"

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed under the
// strict machine
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo reports whether the strict machine allows s -> next.
// Setting the current status again is allowed for non-terminal states.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	switch s {
	case BookingPending:
		return next == BookingPending || next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingConfirmed || next == BookingCompleted || next == BookingCancelled
	}
	return false
}

// PaymentStatus tracks settlement of a booking independently of its status
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentRefunded
}

// Booking is a customer's scheduled engagement of one service
type Booking struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user"`
	ServiceID     string        `json:"service"`
	ScheduledDate time.Time     `json:"scheduledDate"`
	Status        BookingStatus `json:"status"`
	Address       string        `json:"address"`
	Phone         string        `json:"phone"`
	Images        []MediaRef    `json:"images"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// OwnedBy reports whether u created the booking
func (b *Booking) OwnedBy(u *User) bool {
	return u != nil && b.UserID == u.ID
}

// BookingPatch is the allow-listed set of scalar fields staff may overwrite.
// The user and service references and the image list are not patchable.
type BookingPatch struct {
	ScheduledDate *time.Time
	Address       *string
	Phone         *string
	Notes         *string
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
}

func (p BookingPatch) Empty() bool {
	return p.ScheduledDate == nil && p.Address == nil && p.Phone == nil &&
		p.Notes == nil && p.Status == nil && p.PaymentStatus == nil
}

// BookingView is a booking with its references populated for display.
// Service and User shadow the embedded id fields; an unpopulated reference
// carries only its id.
type BookingView struct {
	*Booking
	Service *ServiceSummary `json:"service"`
	User    *UserSummary    `json:"user"`
}
