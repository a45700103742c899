package service

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository"

	"go.uber.org/zap"
)

// CreateReviewInput carries the fields of a new review
type CreateReviewInput struct {
	ServiceID string
	Rating    int
	Comment   string
}

// ReviewService defines the interface for service reviews
type ReviewService interface {
	Create(ctx context.Context, actor *domain.User, in CreateReviewInput, images []media.File) (*domain.ReviewView, error)
	ListByService(ctx context.Context, serviceID string) ([]*domain.ReviewView, error)
	Update(ctx context.Context, actor *domain.User, id string, patch domain.ReviewPatch, images []media.File) (*domain.ReviewView, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}

type reviewService struct {
	reviews  repository.ReviewRepository
	services repository.ServiceRepository
	users    repository.UserRepository
	media    *media.Manager
	logger   *zap.Logger
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(
	reviews repository.ReviewRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	mediaManager *media.Manager,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		reviews:  reviews,
		services: services,
		users:    users,
		media:    mediaManager,
		logger:   logger,
	}
}

func validRating(r int) error {
	if r < domain.MinRating || r > domain.MaxRating {
		return domain.InvalidArgument(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	return nil
}

func (s *reviewService) Create(ctx context.Context, actor *domain.User, in CreateReviewInput, images []media.File) (*domain.ReviewView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.ServiceID == "" {
		return nil, domain.InvalidArgument("service is required")
	}
	if err := validRating(in.Rating); err != nil {
		return nil, err
	}
	if len(images) > domain.MaxImages {
		return nil, imageLimitError()
	}
	if err := s.media.Validate(media.ReviewPolicy, images...); err != nil {
		return nil, err
	}

	if _, err := s.services.FindByID(ctx, in.ServiceID); err != nil {
		return nil, storeError(err, "service")
	}

	refs, err := s.media.AcceptAll(ctx, media.ReviewPolicy, images)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		UserID:    actor.ID,
		ServiceID: in.ServiceID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Images:    refs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		s.media.Compensate(ctx, refs, err)
		return nil, storeError(err, "review")
	}

	s.refreshRating(ctx, review.ServiceID)
	return &domain.ReviewView{Review: review, User: actor.Summary()}, nil
}

func (s *reviewService) ListByService(ctx context.Context, serviceID string) ([]*domain.ReviewView, error) {
	reviews, err := s.reviews.ListByService(ctx, serviceID)
	if err != nil {
		return nil, storeError(err, "review")
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to populate review authors", zap.Error(err))
	}

	views := make([]*domain.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		author := &domain.UserSummary{ID: r.UserID}
		if u, ok := authors[r.UserID]; ok {
			author = &domain.UserSummary{ID: u.ID, Name: u.Name}
		}
		views = append(views, &domain.ReviewView{Review: r, User: author})
	}
	return views, nil
}

// Update applies the author's changes. Deleted images are released after
// the review is saved; new uploads are released if saving fails.
func (s *reviewService) Update(ctx context.Context, actor *domain.User, id string, patch domain.ReviewPatch, images []media.File) (*domain.ReviewView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "review")
	}
	if review.UserID != actor.ID {
		return nil, domain.Forbidden("you can only update your own reviews")
	}

	rating, comment := review.Rating, review.Comment
	if patch.Rating != nil {
		if err := validRating(*patch.Rating); err != nil {
			return nil, err
		}
		rating = *patch.Rating
	}
	if patch.Comment != nil {
		comment = *patch.Comment
	}

	drop := make(map[string]struct{}, len(patch.DeletedImages))
	for _, u := range patch.DeletedImages {
		drop[u] = struct{}{}
	}
	kept := make([]domain.MediaRef, 0, len(review.Images))
	var removed []domain.MediaRef
	for _, img := range review.Images {
		if _, ok := drop[img.URL]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}

	if len(kept)+len(images) > domain.MaxImages {
		return nil, imageLimitError()
	}

	added, err := s.media.AcceptAll(ctx, media.ReviewPolicy, images)
	if err != nil {
		return nil, err
	}

	updated, err := s.reviews.Update(ctx, id, rating, comment, append(kept, added...))
	if err != nil {
		s.media.Compensate(ctx, added, err)
		return nil, storeError(err, "review")
	}

	s.media.Cleanup(ctx, removed...)
	s.refreshRating(ctx, updated.ServiceID)
	return &domain.ReviewView{Review: updated, User: &domain.UserSummary{ID: actor.ID, Name: actor.Name}}, nil
}

// Delete removes a review for its author or an admin and releases its
// images
func (s *reviewService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "review")
	}
	if review.UserID != actor.ID && !actor.HasRole(domain.RoleAdmin) {
		return domain.Forbidden("you can only delete your own reviews")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return storeError(err, "review")
	}

	s.media.Cleanup(ctx, review.Images...)
	s.refreshRating(ctx, review.ServiceID)
	return nil
}

// refreshRating recomputes the service's average rating. Failures are
// logged; the rating catches up on the next review change.
func (s *reviewService) refreshRating(ctx context.Context, serviceID string) {
	avg, err := s.reviews.AverageRating(ctx, serviceID)
	if err != nil {
		s.logger.Warn("Failed to compute average rating", zap.String("service_id", serviceID), zap.Error(err))
		return
	}
	if _, err := s.services.Update(ctx, serviceID, domain.ServiceUpdate{AverageRating: &avg}); err != nil {
		s.logger.Warn("Failed to store average rating", zap.String("service_id", serviceID), zap.Error(err))
	}
}
