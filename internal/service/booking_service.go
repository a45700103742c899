package service

import (
	"context"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository"

	"go.uber.org/zap"
)

// CreateBookingInput carries the scalar fields of a new booking
type CreateBookingInput struct {
	ServiceID     string
	ScheduledDate time.Time
	Address       string
	Phone         string
	Notes         string
}

// BookingService defines the interface for the booking lifecycle
type BookingService interface {
	Create(ctx context.Context, actor *domain.User, in CreateBookingInput, images []media.File) (*domain.BookingView, error)
	AttachImages(ctx context.Context, actor *domain.User, id string, images []media.File) (*domain.Booking, error)
	RemoveImage(ctx context.Context, actor *domain.User, id string, index int) (*domain.Booking, error)
	UpdateFields(ctx context.Context, actor *domain.User, id string, patch domain.BookingPatch) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, actor *domain.User, id string, status domain.BookingStatus) (*domain.Booking, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
	ListByUser(ctx context.Context, actor *domain.User, userID string) ([]*domain.BookingView, error)
	ListByService(ctx context.Context, actor *domain.User, serviceID string) ([]*domain.BookingView, error)
	ListAll(ctx context.Context, actor *domain.User) ([]*domain.BookingView, error)
}

// BookingOption configures a BookingService
type BookingOption func(*bookingService)

// WithStrictTransitions rejects status changes the state machine does not
// allow. Without it any valid status may be set from any status.
func WithStrictTransitions(strict bool) BookingOption {
	return func(s *bookingService) {
		s.strict = strict
	}
}

type bookingService struct {
	bookings repository.BookingRepository
	services repository.ServiceRepository
	users    repository.UserRepository
	media    *media.Manager
	logger   *zap.Logger
	strict   bool
}

// NewBookingService creates a new instance of BookingService
func NewBookingService(
	bookings repository.BookingRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	mediaManager *media.Manager,
	logger *zap.Logger,
	opts ...BookingOption,
) BookingService {
	s := &bookingService{
		bookings: bookings,
		services: services,
		users:    users,
		media:    mediaManager,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request and every image before anything is
// uploaded. Accepted images are released if the booking cannot be saved.
func (s *bookingService) Create(ctx context.Context, actor *domain.User, in CreateBookingInput, images []media.File) (*domain.BookingView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.ServiceID == "" || in.ScheduledDate.IsZero() ||
		strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, domain.InvalidArgument("service, scheduledDate, address and phone are required")
	}
	if len(images) > domain.MaxImages {
		return nil, imageLimitError()
	}
	if err := s.media.Validate(media.BookingPolicy, images...); err != nil {
		return nil, err
	}

	service, err := s.services.FindByID(ctx, in.ServiceID)
	if err != nil {
		return nil, storeError(err, "service")
	}

	refs, err := s.media.AcceptAll(ctx, media.BookingPolicy, images)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		UserID:        actor.ID,
		ServiceID:     service.ID,
		ScheduledDate: in.ScheduledDate.UTC(),
		Status:        domain.BookingPending,
		Address:       in.Address,
		Phone:         in.Phone,
		Images:        refs,
		PaymentStatus: domain.PaymentPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.media.Compensate(ctx, refs, err)
		return nil, storeError(err, "booking")
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", actor.ID),
		zap.String("service_id", service.ID),
		zap.Int("images", len(refs)),
	)
	return &domain.BookingView{Booking: booking, Service: service.Summary(), User: actor.Summary()}, nil
}

// AttachImages appends images for the owner or staff. The combined list
// may not exceed MaxImages.
func (s *bookingService) AttachImages(ctx context.Context, actor *domain.User, id string, images []media.File) (*domain.Booking, error) {
	booking, err := s.bookingFor(ctx, actor, id, true, domain.RoleAdmin, domain.RoleProvider)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.InvalidArgument("no images provided")
	}
	if len(booking.Images)+len(images) > domain.MaxImages {
		return nil, imageLimitError()
	}

	refs, err := s.media.AcceptAll(ctx, media.BookingPolicy, images)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.AppendImages(ctx, id, refs, domain.MaxImages)
	if err != nil {
		s.media.Compensate(ctx, refs, err)
		return nil, storeError(err, "booking")
	}
	return updated, nil
}

// RemoveImage deletes the image at index from the store, then from the
// booking. If the store delete fails the booking is left unchanged.
func (s *bookingService) RemoveImage(ctx context.Context, actor *domain.User, id string, index int) (*domain.Booking, error) {
	booking, err := s.bookingFor(ctx, actor, id, true, domain.RoleAdmin, domain.RoleProvider)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(booking.Images) {
		return nil, domain.NotFound("image not found")
	}

	ref := booking.Images[index]
	if err := s.media.Release(ctx, ref).Err(); err != nil {
		s.logger.Error("Failed to delete booking image",
			zap.String("booking_id", id),
			zap.String("public_id", ref.DeleteID()),
			zap.Error(err),
		)
		return nil, domain.Upstream("failed to delete image", err)
	}

	updated, err := s.bookings.RemoveImage(ctx, id, ref.URL)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	return updated, nil
}

// UpdateFields overwrites allow-listed scalar fields. Staff only.
func (s *bookingService) UpdateFields(ctx context.Context, actor *domain.User, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleProvider); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.InvalidArgument("no fields to update")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.InvalidArgument("invalid booking status")
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, domain.InvalidArgument("invalid payment status")
	}
	if patch.Address != nil && strings.TrimSpace(*patch.Address) == "" {
		return nil, domain.InvalidArgument("address must not be empty")
	}
	if patch.Phone != nil && strings.TrimSpace(*patch.Phone) == "" {
		return nil, domain.InvalidArgument("phone must not be empty")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	if patch.Status != nil {
		if err := s.checkTransition(booking.Status, *patch.Status); err != nil {
			return nil, err
		}
	}

	updated, err := s.bookings.Update(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	return updated, nil
}

// UpdateStatus sets the status for the owner or staff. Concurrent updates
// are last-write-wins.
func (s *bookingService) UpdateStatus(ctx context.Context, actor *domain.User, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.InvalidArgument("invalid booking status")
	}

	booking, err := s.bookingFor(ctx, actor, id, true, domain.RoleAdmin, domain.RoleProvider)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(booking.Status, status); err != nil {
		return nil, err
	}

	updated, err := s.bookings.Update(ctx, id, domain.BookingPatch{Status: &status})
	if err != nil {
		return nil, storeError(err, "booking")
	}

	s.logger.Info("Booking status updated",
		zap.String("booking_id", id),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(status)),
		zap.String("actor_id", actor.ID),
	)
	return updated, nil
}

// Delete removes the booking, then tries to release every image. Release
// failures are logged and do not undo the deletion.
func (s *bookingService) Delete(ctx context.Context, actor *domain.User, id string) error {
	booking, err := s.bookingFor(ctx, actor, id, true, domain.RoleAdmin)
	if err != nil {
		return err
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return storeError(err, "booking")
	}

	result := s.media.Cleanup(ctx, booking.Images...)
	s.logger.Info("Booking deleted",
		zap.String("booking_id", id),
		zap.String("actor_id", actor.ID),
		zap.Int("images_released", len(result.Released)),
		zap.Int("images_orphaned", len(result.Failed)),
	)
	return nil
}

// ListByUser lists a user's bookings with their services populated.
// Users may list their own bookings; admins may list anyone's.
func (s *bookingService) ListByUser(ctx context.Context, actor *domain.User, userID string) ([]*domain.BookingView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.ID != userID && !actor.HasRole(domain.RoleAdmin) {
		return nil, domain.Forbidden("access denied")
	}

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	if len(bookings) == 0 {
		return nil, domain.NotFound("no bookings found for this user")
	}
	return s.views(ctx, bookings, false), nil
}

// ListByService lists the bookings of a service. Staff only.
func (s *bookingService) ListByService(ctx context.Context, actor *domain.User, serviceID string) ([]*domain.BookingView, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleProvider); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListByService(ctx, serviceID)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	if len(bookings) == 0 {
		return nil, domain.NotFound("no bookings found for this service")
	}
	return s.views(ctx, bookings, true), nil
}

// ListAll lists every booking. Admin only.
func (s *bookingService) ListAll(ctx context.Context, actor *domain.User) ([]*domain.BookingView, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	return s.views(ctx, bookings, true), nil
}

// bookingFor loads booking id and checks the actor is its owner (when
// owner is set) or holds one of roles
func (s *bookingService) bookingFor(ctx context.Context, actor *domain.User, id string, owner bool, roles ...domain.Role) (*domain.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking")
	}
	if (owner && booking.OwnedBy(actor)) || actor.HasRole(roles...) {
		return booking, nil
	}
	return nil, domain.Forbidden("access denied")
}

func (s *bookingService) checkTransition(from, to domain.BookingStatus) error {
	if s.strict && !from.CanTransitionTo(to) {
		return domain.InvalidArgument("cannot change booking status from " + string(from) + " to " + string(to))
	}
	return nil
}

// views populates service summaries, and user summaries when withUser is
// set. References that cannot be resolved carry only their id.
func (s *bookingService) views(ctx context.Context, bookings []*domain.Booking, withUser bool) []*domain.BookingView {
	serviceIDs := make([]string, 0, len(bookings))
	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		serviceIDs = append(serviceIDs, b.ServiceID)
		userIDs = append(userIDs, b.UserID)
	}

	services, err := s.services.FindByIDs(ctx, serviceIDs)
	if err != nil {
		s.logger.Warn("Failed to populate booking services", zap.Error(err))
	}
	var users map[string]*domain.User
	if withUser {
		if users, err = s.users.FindByIDs(ctx, userIDs); err != nil {
			s.logger.Warn("Failed to populate booking users", zap.Error(err))
		}
	}

	views := make([]*domain.BookingView, 0, len(bookings))
	for _, b := range bookings {
		view := &domain.BookingView{
			Booking: b,
			Service: &domain.ServiceSummary{ID: b.ServiceID},
			User:    &domain.UserSummary{ID: b.UserID},
		}
		if svc, ok := services[b.ServiceID]; ok {
			view.Service = svc.Summary()
		}
		if u, ok := users[b.UserID]; ok {
			view.User = u.Summary()
		}
		views = append(views, view)
	}
	return views
}
