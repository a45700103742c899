package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/repository"
)

type userRepository struct {
	t *table[domain.User]
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{t: newTable(func(u *domain.User) *domain.User {
		c := *u
		c.ProfilePicture = cloneRef(u.ProfilePicture)
		return &c
	})}
}

func userCreated(u *domain.User) time.Time { return u.CreatedAt }

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	assignID(&user.ID)
	user.Email = strings.ToLower(user.Email)
	return r.t.insert(user.ID, user, func(existing *domain.User) bool {
		return existing.Email == user.Email
	})
}

func (r *userRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.t.get(id)
}

func (r *userRepository) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, err := r.t.get(id); err == nil {
			out[id] = u
		}
	}
	return out, nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.t.find(func(u *domain.User) bool { return equalFold(u.Email, email) })
}

func (r *userRepository) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	return r.t.filter(func(u *domain.User) bool { return u.Role == role }, userCreated), nil
}

func (r *userRepository) Update(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	if upd.Email != nil {
		email := strings.ToLower(*upd.Email)
		if other, err := r.t.find(func(u *domain.User) bool { return u.Email == email }); err == nil && other.ID != id {
			return nil, repository.ErrDuplicate
		}
	}

	return r.t.mutate(id, func(u *domain.User) error {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = strings.ToLower(*upd.Email)
		}
		if upd.Address != nil {
			u.Address = *upd.Address
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.AccountStatus != nil {
			u.AccountStatus = *upd.AccountStatus
		}
		if upd.ProfilePicture != nil {
			u.ProfilePicture = cloneRef(*upd.ProfilePicture)
		}
		u.UpdatedAt = now()
		return nil
	})
}

type categoryRepository struct {
	t *table[domain.Category]
}

func NewCategoryRepository() repository.CategoryRepository {
	return &categoryRepository{t: newTable(func(c *domain.Category) *domain.Category {
		cp := *c
		return &cp
	})}
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	assignID(&category.ID)
	return r.t.insert(category.ID, category, func(existing *domain.Category) bool {
		return equalFold(existing.Name, category.Name)
	})
}

func (r *categoryRepository) FindByID(_ context.Context, id string) (*domain.Category, error) {
	return r.t.get(id)
}

func (r *categoryRepository) FindByName(_ context.Context, name string) (*domain.Category, error) {
	return r.t.find(func(c *domain.Category) bool { return equalFold(c.Name, name) })
}

func (r *categoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	out := r.t.filter(nil, func(c *domain.Category) time.Time { return c.CreatedAt })
	sortByName(out)
	return out, nil
}

func (r *categoryRepository) Update(_ context.Context, id, name string, description *string) (*domain.Category, error) {
	if other, err := r.t.find(func(c *domain.Category) bool { return equalFold(c.Name, name) }); err == nil && other.ID != id {
		return nil, repository.ErrDuplicate
	}
	return r.t.mutate(id, func(c *domain.Category) error {
		c.Name = name
		if description != nil {
			c.Description = *description
		}
		c.UpdatedAt = now()
		return nil
	})
}

func (r *categoryRepository) Delete(_ context.Context, id string) error {
	return r.t.delete(id)
}

func sortByName(cs []*domain.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		return strings.ToLower(cs[i].Name) < strings.ToLower(cs[j].Name)
	})
}

type serviceRepository struct {
	t *table[domain.Service]
}

func NewServiceRepository() repository.ServiceRepository {
	return &serviceRepository{t: newTable(func(s *domain.Service) *domain.Service {
		c := *s
		c.Icon = cloneRef(s.Icon)
		c.Images = cloneRefs(s.Images)
		return &c
	})}
}

func serviceCreated(s *domain.Service) time.Time { return s.CreatedAt }

func (r *serviceRepository) Create(_ context.Context, service *domain.Service) error {
	assignID(&service.ID)
	return r.t.insert(service.ID, service, nil)
}

func (r *serviceRepository) FindByID(_ context.Context, id string) (*domain.Service, error) {
	return r.t.get(id)
}

func (r *serviceRepository) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Service, error) {
	out := make(map[string]*domain.Service, len(ids))
	for _, id := range ids {
		if s, err := r.t.get(id); err == nil {
			out[id] = s
		}
	}
	return out, nil
}

func (r *serviceRepository) List(_ context.Context) ([]*domain.Service, error) {
	return r.t.filter(nil, serviceCreated), nil
}

func (r *serviceRepository) Search(_ context.Context, name string) ([]*domain.Service, error) {
	needle := strings.ToLower(name)
	return r.t.filter(func(s *domain.Service) bool {
		return strings.Contains(strings.ToLower(s.Name), needle)
	}, serviceCreated), nil
}

func (r *serviceRepository) ListByProvider(_ context.Context, providerID string) ([]*domain.Service, error) {
	return r.t.filter(func(s *domain.Service) bool { return s.ProviderID == providerID }, serviceCreated), nil
}

func (r *serviceRepository) ListByCategory(_ context.Context, categoryID string) ([]*domain.Service, error) {
	return r.t.filter(func(s *domain.Service) bool { return s.CategoryID == categoryID }, serviceCreated), nil
}

func (r *serviceRepository) Update(_ context.Context, id string, upd domain.ServiceUpdate) (*domain.Service, error) {
	return r.t.mutate(id, func(s *domain.Service) error {
		if upd.Name != nil {
			s.Name = *upd.Name
		}
		if upd.Description != nil {
			s.Description = *upd.Description
		}
		if upd.CategoryID != nil {
			s.CategoryID = *upd.CategoryID
		}
		if upd.Price != nil {
			s.Price = *upd.Price
		}
		if upd.Availability != nil {
			s.Availability = *upd.Availability
		}
		if upd.Icon != nil {
			s.Icon = cloneRef(*upd.Icon)
		}
		if upd.Images != nil {
			s.Images = cloneRefs(*upd.Images)
		}
		if upd.AverageRating != nil {
			s.AverageRating = *upd.AverageRating
		}
		s.UpdatedAt = now()
		return nil
	})
}

func (r *serviceRepository) Delete(_ context.Context, id string) error {
	return r.t.delete(id)
}

type bookingRepository struct {
	t *table[domain.Booking]
}

func NewBookingRepository() repository.BookingRepository {
	return &bookingRepository{t: newTable(func(b *domain.Booking) *domain.Booking {
		c := *b
		c.Images = cloneRefs(b.Images)
		return &c
	})}
}

func bookingCreated(b *domain.Booking) time.Time { return b.CreatedAt }

func (r *bookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	assignID(&booking.ID)
	return r.t.insert(booking.ID, booking, nil)
}

func (r *bookingRepository) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	return r.t.get(id)
}

func (r *bookingRepository) List(_ context.Context) ([]*domain.Booking, error) {
	return r.t.filter(nil, bookingCreated), nil
}

func (r *bookingRepository) ListByUser(_ context.Context, userID string) ([]*domain.Booking, error) {
	return r.t.filter(func(b *domain.Booking) bool { return b.UserID == userID }, bookingCreated), nil
}

func (r *bookingRepository) ListByService(_ context.Context, serviceID string) ([]*domain.Booking, error) {
	return r.t.filter(func(b *domain.Booking) bool { return b.ServiceID == serviceID }, bookingCreated), nil
}

func (r *bookingRepository) Update(_ context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	return r.t.mutate(id, func(b *domain.Booking) error {
		if patch.ScheduledDate != nil {
			b.ScheduledDate = *patch.ScheduledDate
		}
		if patch.Address != nil {
			b.Address = *patch.Address
		}
		if patch.Phone != nil {
			b.Phone = *patch.Phone
		}
		if patch.Notes != nil {
			b.Notes = *patch.Notes
		}
		if patch.Status != nil {
			b.Status = *patch.Status
		}
		if patch.PaymentStatus != nil {
			b.PaymentStatus = *patch.PaymentStatus
		}
		b.UpdatedAt = now()
		return nil
	})
}

func (r *bookingRepository) AppendImages(_ context.Context, id string, refs []domain.MediaRef, max int) (*domain.Booking, error) {
	return r.t.mutate(id, func(b *domain.Booking) error {
		if len(b.Images)+len(refs) > max {
			return repository.ErrImageLimit
		}
		b.Images = append(b.Images, refs...)
		b.UpdatedAt = now()
		return nil
	})
}

func (r *bookingRepository) RemoveImage(_ context.Context, id, url string) (*domain.Booking, error) {
	return r.t.mutate(id, func(b *domain.Booking) error {
		kept := b.Images[:0]
		for _, img := range b.Images {
			if img.URL != url {
				kept = append(kept, img)
			}
		}
		b.Images = kept
		b.UpdatedAt = now()
		return nil
	})
}

func (r *bookingRepository) Delete(_ context.Context, id string) error {
	return r.t.delete(id)
}

type reviewRepository struct {
	t *table[domain.Review]
}

func NewReviewRepository() repository.ReviewRepository {
	return &reviewRepository{t: newTable(func(rv *domain.Review) *domain.Review {
		c := *rv
		c.Images = cloneRefs(rv.Images)
		return &c
	})}
}

func reviewCreated(rv *domain.Review) time.Time { return rv.CreatedAt }

func (r *reviewRepository) Create(_ context.Context, review *domain.Review) error {
	assignID(&review.ID)
	return r.t.insert(review.ID, review, nil)
}

func (r *reviewRepository) FindByID(_ context.Context, id string) (*domain.Review, error) {
	return r.t.get(id)
}

func (r *reviewRepository) ListByService(_ context.Context, serviceID string) ([]*domain.Review, error) {
	return r.t.filter(func(rv *domain.Review) bool { return rv.ServiceID == serviceID }, reviewCreated), nil
}

func (r *reviewRepository) Update(_ context.Context, id string, rating int, comment string, images []domain.MediaRef) (*domain.Review, error) {
	return r.t.mutate(id, func(rv *domain.Review) error {
		rv.Rating = rating
		rv.Comment = comment
		rv.Images = cloneRefs(images)
		rv.UpdatedAt = now()
		return nil
	})
}

func (r *reviewRepository) Delete(_ context.Context, id string) error {
	return r.t.delete(id)
}

func (r *reviewRepository) AverageRating(_ context.Context, serviceID string) (float64, error) {
	reviews := r.t.filter(func(rv *domain.Review) bool { return rv.ServiceID == serviceID }, reviewCreated)
	if len(reviews) == 0 {
		return 0, nil
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(reviews)), nil
}

type paymentRepository struct {
	t *table[domain.Payment]
}

func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{t: newTable(func(p *domain.Payment) *domain.Payment {
		c := *p
		return &c
	})}
}

func paymentCreated(p *domain.Payment) time.Time { return p.CreatedAt }

func (r *paymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	assignID(&payment.ID)
	return r.t.insert(payment.ID, payment, func(existing *domain.Payment) bool {
		return existing.TransactionID == payment.TransactionID
	})
}

func (r *paymentRepository) List(_ context.Context) ([]*domain.Payment, error) {
	return r.t.filter(nil, paymentCreated), nil
}

func (r *paymentRepository) ListByUser(_ context.Context, userID string) ([]*domain.Payment, error) {
	return r.t.filter(func(p *domain.Payment) bool { return p.UserID == userID }, paymentCreated), nil
}
