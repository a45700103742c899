package repository

import (
	"context"
	"errors"

	"servicehub/internal/domain"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrImageLimit = errors.New("image limit exceeded")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, id, name string, description *string) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// ServiceRepository defines the interface for service listing data access
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	FindByID(ctx context.Context, id string) (*domain.Service, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Service, error)
	List(ctx context.Context) ([]*domain.Service, error)
	// Search matches name as a case-insensitive literal substring.
	Search(ctx context.Context, name string) ([]*domain.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]*domain.Service, error)
	ListByCategory(ctx context.Context, categoryID string) ([]*domain.Service, error)
	Update(ctx context.Context, id string, upd domain.ServiceUpdate) (*domain.Service, error)
	Delete(ctx context.Context, id string) error
}

// BookingRepository defines the interface for booking data access
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context) ([]*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)
	ListByService(ctx context.Context, serviceID string) ([]*domain.Booking, error)
	Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error)
	// AppendImages appends refs only if the result holds at most max
	// images, returning ErrImageLimit otherwise. The check and the append
	// are one atomic document update.
	AppendImages(ctx context.Context, id string, refs []domain.MediaRef, max int) (*domain.Booking, error)
	// RemoveImage removes the image with the given URL, keeping the order
	// of the others.
	RemoveImage(ctx context.Context, id, url string) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	ListByService(ctx context.Context, serviceID string) ([]*domain.Review, error)
	Update(ctx context.Context, id string, rating int, comment string, images []domain.MediaRef) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	// AverageRating returns the mean rating of a service, 0 without reviews.
	AverageRating(ctx context.Context, serviceID string) (float64, error)
}

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	List(ctx context.Context) ([]*domain.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error)
}

// Repositories bundles every repository the services need
type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	Services   ServiceRepository
	Bookings   BookingRepository
	Reviews    ReviewRepository
	Payments   PaymentRepository
}
