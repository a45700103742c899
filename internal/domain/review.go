package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one rating and comment left by a user on a service. Nothing
// prevents a user from reviewing the same service more than once.
type Review struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ServiceID string     `json:"service"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	Images    []MediaRef `json:"images"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ReviewPatch is the author's update of a review
type ReviewPatch struct {
	Rating        *int
	Comment       *string
	DeletedImages []string
}

// ReviewView is a review with its author populated
type ReviewView struct {
	*Review
	User *UserSummary `json:"user"`
}
