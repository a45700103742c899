package domain

import "time"

type NotificationType string

const (
	NotificationBooking NotificationType = "booking"
	NotificationPayment NotificationType = "payment"
	NotificationReview  NotificationType = "review"
	NotificationGeneral NotificationType = "general"
)

// Notification is declared for clients but has no producer yet
type Notification struct {
	ID         string           `json:"id"`
	Recipients []string         `json:"user"`
	ProviderID string           `json:"provider,omitempty"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}
