package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository"

	"go.uber.org/zap"
)

// CreateServiceInput carries the fields of a new service listing
type CreateServiceInput struct {
	Name         string
	Description  string
	CategoryName string
	Price        float64
	Availability domain.Availability
}

// ServiceMedia is the optional icon and images sent with a create or update
type ServiceMedia struct {
	Icon   *media.File
	Images []media.File
}

func (m ServiceMedia) files() []media.File {
	files := make([]media.File, 0, len(m.Images)+1)
	if m.Icon != nil {
		files = append(files, *m.Icon)
	}
	return append(files, m.Images...)
}

// CatalogService defines the interface for categories and service listings
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, actor *domain.User, name, description string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, actor *domain.User, id, name string, description *string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, actor *domain.User, id string) error

	List(ctx context.Context) ([]*domain.ServiceView, error)
	Search(ctx context.Context, name string) ([]*domain.ServiceView, error)
	Get(ctx context.Context, id string) (*domain.ServiceView, error)
	ListByProvider(ctx context.Context, providerID string) ([]*domain.ServiceView, error)
	ListByCategory(ctx context.Context, categoryID string) (*domain.CategoryServices, error)
	Create(ctx context.Context, actor *domain.User, in CreateServiceInput, files ServiceMedia) (*domain.ServiceView, error)
	Update(ctx context.Context, actor *domain.User, id string, patch domain.ServicePatch, files ServiceMedia) (*domain.ServiceView, error)
	RemoveImages(ctx context.Context, actor *domain.User, id string, urls []string) (*domain.Service, error)
	RemoveIcon(ctx context.Context, actor *domain.User, id string) (*domain.Service, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}

type catalogService struct {
	categories repository.CategoryRepository
	services   repository.ServiceRepository
	users      repository.UserRepository
	media      *media.Manager
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categories repository.CategoryRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	mediaManager *media.Manager,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		categories: categories,
		services:   services,
		users:      users,
		media:      mediaManager,
		logger:     logger,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeError(err, "category")
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, actor *domain.User, name, description string) (*domain.Category, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgument("category name is required")
	}

	now := time.Now().UTC()
	category := &domain.Category{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storeError(err, "category")
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor *domain.User, id, name string, description *string) (*domain.Category, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgument("category name is required")
	}

	category, err := s.categories.Update(ctx, id, name, description)
	if err != nil {
		return nil, storeError(err, "category")
	}
	return category, nil
}

// DeleteCategory removes the category. Services keep their dangling
// reference.
func (s *catalogService) DeleteCategory(ctx context.Context, actor *domain.User, id string) error {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	return storeError(s.categories.Delete(ctx, id), "category")
}

func (s *catalogService) List(ctx context.Context) ([]*domain.ServiceView, error) {
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, storeError(err, "service")
	}
	return s.views(ctx, services), nil
}

func (s *catalogService) Search(ctx context.Context, name string) ([]*domain.ServiceView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgument("search name is required")
	}

	services, err := s.services.Search(ctx, name)
	if err != nil {
		return nil, storeError(err, "service")
	}
	if len(services) == 0 {
		return nil, domain.NotFound("no services found")
	}
	return s.views(ctx, services), nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.ServiceView, error) {
	service, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "service")
	}

	view := s.views(ctx, []*domain.Service{service})[0]
	if category, err := s.categories.FindByID(ctx, service.CategoryID); err == nil {
		view.CategoryDetail = category
	}
	return view, nil
}

func (s *catalogService) ListByProvider(ctx context.Context, providerID string) ([]*domain.ServiceView, error) {
	services, err := s.services.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, storeError(err, "service")
	}
	if len(services) == 0 {
		return nil, domain.NotFound("no services found for this provider")
	}
	return s.views(ctx, services), nil
}

func (s *catalogService) ListByCategory(ctx context.Context, categoryID string) (*domain.CategoryServices, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, storeError(err, "category")
	}

	services, err := s.services.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, storeError(err, "service")
	}
	return &domain.CategoryServices{CategoryName: category.Name, Services: s.views(ctx, services)}, nil
}

// Create validates the listing and every file, uploads the icon and
// images, then persists. Uploads are released if persisting fails.
func (s *catalogService) Create(ctx context.Context, actor *domain.User, in CreateServiceInput, files ServiceMedia) (*domain.ServiceView, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleProvider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.CategoryName) == "" {
		return nil, domain.InvalidArgument("name, description and category are required")
	}
	if in.Price <= 0 {
		return nil, domain.InvalidArgument("price must be greater than zero")
	}
	if in.Availability == "" {
		in.Availability = domain.Available
	}
	if !in.Availability.Valid() {
		return nil, domain.InvalidArgument("availability must be available or unavailable")
	}
	if len(files.Images) > domain.MaxImages {
		return nil, imageLimitError()
	}
	if err := s.media.Validate(media.ServicePolicy, files.files()...); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, in.CategoryName)
	if err != nil {
		return nil, err
	}

	icon, images, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	service := &domain.Service{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		CategoryID:   category.ID,
		Price:        in.Price,
		Availability: in.Availability,
		ProviderID:   actor.ID,
		Icon:         icon,
		Images:       images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.services.Create(ctx, service); err != nil {
		s.media.Compensate(ctx, service.MediaRefs(), err)
		return nil, storeError(err, "service")
	}

	s.logger.Info("Service created", zap.String("service_id", service.ID), zap.String("provider_id", actor.ID))
	return &domain.ServiceView{Service: service, ProviderName: actor.Name, CategoryDetail: category}, nil
}

// Update applies patch and media. A new icon replaces the old one, new
// images are appended keeping the newest MaxImages. Replaced and truncated
// media is released once the record is saved.
func (s *catalogService) Update(ctx context.Context, actor *domain.User, id string, patch domain.ServicePatch, files ServiceMedia) (*domain.ServiceView, error) {
	service, err := s.ownedService(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	upd := domain.ServiceUpdate{
		Name:         patch.Name,
		Description:  patch.Description,
		Price:        patch.Price,
		Availability: patch.Availability,
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.InvalidArgument("name must not be empty")
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, domain.InvalidArgument("price must be greater than zero")
	}
	if patch.Availability != nil && !patch.Availability.Valid() {
		return nil, domain.InvalidArgument("availability must be available or unavailable")
	}
	if len(files.Images) > domain.MaxImages {
		return nil, imageLimitError()
	}
	if err := s.media.Validate(media.ServicePolicy, files.files()...); err != nil {
		return nil, err
	}

	var category *domain.Category
	if patch.CategoryName != nil {
		category, err = s.resolveCategory(ctx, *patch.CategoryName)
		if err != nil {
			return nil, err
		}
		upd.CategoryID = &category.ID
	}

	icon, added, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	uploaded := added
	if icon != nil {
		uploaded = append([]domain.MediaRef{*icon}, added...)
	}

	var released []domain.MediaRef
	if icon != nil {
		upd.Icon = &icon
		if service.Icon != nil {
			released = append(released, *service.Icon)
		}
	}
	if len(added) > 0 {
		images := append(append([]domain.MediaRef{}, service.Images...), added...)
		if over := len(images) - domain.MaxImages; over > 0 {
			released = append(released, images[:over]...)
			images = images[over:]
		}
		upd.Images = &images
	}

	updated, err := s.services.Update(ctx, id, upd)
	if err != nil {
		s.media.Compensate(ctx, uploaded, err)
		return nil, storeError(err, "service")
	}

	s.media.Cleanup(ctx, released...)

	view := s.views(ctx, []*domain.Service{updated})[0]
	view.CategoryDetail = category
	return view, nil
}

// RemoveImages drops the images with the given URLs and releases them
func (s *catalogService) RemoveImages(ctx context.Context, actor *domain.User, id string, urls []string) (*domain.Service, error) {
	if len(urls) == 0 {
		return nil, domain.InvalidArgument("no images specified")
	}
	service, err := s.ownedService(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	drop := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		drop[u] = struct{}{}
	}

	kept := make([]domain.MediaRef, 0, len(service.Images))
	var removed []domain.MediaRef
	for _, img := range service.Images {
		if _, ok := drop[img.URL]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	if len(removed) == 0 {
		return nil, domain.NotFound("image not found")
	}

	updated, err := s.services.Update(ctx, id, domain.ServiceUpdate{Images: &kept})
	if err != nil {
		return nil, storeError(err, "service")
	}

	s.media.Cleanup(ctx, removed...)
	return updated, nil
}

// RemoveIcon clears and releases the icon. It is a no-op without one.
func (s *catalogService) RemoveIcon(ctx context.Context, actor *domain.User, id string) (*domain.Service, error) {
	service, err := s.ownedService(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if service.Icon == nil {
		return service, nil
	}

	old := *service.Icon
	var cleared *domain.MediaRef
	updated, err := s.services.Update(ctx, id, domain.ServiceUpdate{Icon: &cleared})
	if err != nil {
		return nil, storeError(err, "service")
	}

	s.media.Cleanup(ctx, old)
	return updated, nil
}

// Delete removes the listing and releases its media. Bookings referencing
// the service are kept.
func (s *catalogService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}

	service, err := s.services.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "service")
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return storeError(err, "service")
	}

	s.media.Cleanup(ctx, service.MediaRefs()...)
	s.logger.Info("Service deleted", zap.String("service_id", id), zap.String("deleted_by", actor.ID))
	return nil
}

// ownedService loads a service the actor may modify: its provider or an
// admin
func (s *catalogService) ownedService(ctx context.Context, actor *domain.User, id string) (*domain.Service, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleProvider); err != nil {
		return nil, err
	}

	service, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "service")
	}
	if !actor.HasRole(domain.RoleAdmin) && !service.OwnedBy(actor) {
		return nil, domain.Forbidden("you can only modify your own services")
	}
	return service, nil
}

func (s *catalogService) resolveCategory(ctx context.Context, name string) (*domain.Category, error) {
	category, err := s.categories.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.InvalidArgument("category not found")
		}
		return nil, storeError(err, "category")
	}
	return category, nil
}

// upload stores the icon then the images, releasing everything accepted
// so far if one upload fails
func (s *catalogService) upload(ctx context.Context, files ServiceMedia) (*domain.MediaRef, []domain.MediaRef, error) {
	var icon *domain.MediaRef
	if files.Icon != nil {
		ref, err := s.media.Accept(ctx, media.ServicePolicy, *files.Icon)
		if err != nil {
			return nil, nil, err
		}
		icon = &ref
	}

	images, err := s.media.AcceptAll(ctx, media.ServicePolicy, files.Images)
	if err != nil {
		if icon != nil {
			s.media.Compensate(ctx, []domain.MediaRef{*icon}, err)
		}
		return nil, nil, err
	}
	return icon, images, nil
}

// views resolves provider names. A provider that cannot be loaded is shown
// as UnknownProviderName without failing the listing.
func (s *catalogService) views(ctx context.Context, services []*domain.Service) []*domain.ServiceView {
	ids := make([]string, 0, len(services))
	for _, svc := range services {
		ids = append(ids, svc.ProviderID)
	}

	providers, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve service providers", zap.Error(err))
		providers = nil
	}

	views := make([]*domain.ServiceView, 0, len(services))
	for _, svc := range services {
		name := domain.UnknownProviderName
		if p, ok := providers[svc.ProviderID]; ok && p != nil {
			name = p.Name
		}
		views = append(views, &domain.ServiceView{Service: svc, ProviderName: name})
	}
	return views
}
