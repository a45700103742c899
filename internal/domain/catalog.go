package domain

import "time"

// UnknownProviderName is shown when a service's provider cannot be resolved
const UnknownProviderName = "Unknown Provider"

// Availability is the booking availability flag of a service
type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
)

func (a Availability) Valid() bool {
	return a == Available || a == Unavailable
}

// Category groups services
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service is a provider-owned listing
type Service struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	CategoryID    string       `json:"category"`
	Price         float64      `json:"price"`
	Availability  Availability `json:"availability"`
	ProviderID    string       `json:"provider"`
	Icon          *MediaRef    `json:"icon,omitempty"`
	Images        []MediaRef   `json:"images"`
	AverageRating float64      `json:"averageRating"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// OwnedBy reports whether u is the service's provider
func (s *Service) OwnedBy(u *User) bool {
	return u != nil && s.ProviderID == u.ID
}

// MediaRefs returns the icon and images of the service
func (s *Service) MediaRefs() []MediaRef {
	refs := make([]MediaRef, 0, len(s.Images)+1)
	if s.Icon != nil {
		refs = append(refs, *s.Icon)
	}
	return append(refs, s.Images...)
}

// ServicePatch is the allow-listed scalar update of a service
type ServicePatch struct {
	Name         *string
	Description  *string
	CategoryName *string
	Price        *float64
	Availability *Availability
}

// ServiceUpdate is the persisted form of a service mutation
type ServiceUpdate struct {
	Name          *string
	Description   *string
	CategoryID    *string
	Price         *float64
	Availability  *Availability
	Icon          **MediaRef
	Images        *[]MediaRef
	AverageRating *float64
}

// ServiceView is a service with its provider name and category resolved
type ServiceView struct {
	*Service
	ProviderName   string    `json:"providerName"`
	CategoryDetail *Category `json:"categoryDetail,omitempty"`
}

// ServiceSummary is the denormalized projection embedded in bookings
type ServiceSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

func (s *Service) Summary() *ServiceSummary {
	return &ServiceSummary{ID: s.ID, Name: s.Name, Description: s.Description, Price: s.Price}
}

// CategoryServices is the listing of one category
type CategoryServices struct {
	CategoryName string         `json:"categoryName"`
	Services     []*ServiceView `json:"services"`
}
