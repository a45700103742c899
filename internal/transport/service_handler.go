package transport

import (
	"net/http"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RemoveImagesRequest lists the image URLs to drop from a service
type RemoveImagesRequest struct {
	ImageURLs []string `json:"imageUrls" validate:"required,min=1"`
}

// ServiceHandler serves the service listing endpoints
type ServiceHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewServiceHandler(catalog service.CatalogService, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, logger: logger}
}

func (h *ServiceHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/provider/{id}", h.ListByProvider)
		r.Get("/category/{id}", h.ListByCategory)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(g.Auth)
			r.With(g.Role(domain.RoleAdmin, domain.RoleProvider)).Post("/", h.Create)
			r.With(g.Role(domain.RoleAdmin, domain.RoleProvider)).Put("/{id}", h.Update)
			r.With(g.Role(domain.RoleAdmin, domain.RoleProvider)).Delete("/{id}/images", h.RemoveImages)
			r.With(g.Role(domain.RoleAdmin, domain.RoleProvider)).Delete("/{id}/icon", h.RemoveIcon)
			r.With(g.Role(domain.RoleAdmin)).Delete("/{id}", h.Delete)
		})
	})
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context())
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, services)
}

func (h *ServiceHandler) Search(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, services)
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ServiceHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListByProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, services)
}

func (h *ServiceHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.ListByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, listing)
}

// serviceMedia reads the optional icon and images of a service form
func serviceMedia(f *form) (service.ServiceMedia, error) {
	var files service.ServiceMedia
	icons, err := f.filesFor("icon", 1)
	if err != nil {
		return files, err
	}
	if len(icons) == 1 {
		files.Icon = &icons[0]
	}
	files.Images, err = f.filesFor("images", domain.MaxImages)
	return files, err
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	price, err := f.float("price")
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	files, err := serviceMedia(f)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	view, err := h.catalog.Create(r.Context(), actor(r), service.CreateServiceInput{
		Name:         f.value("name"),
		Description:  f.value("description"),
		CategoryName: f.value("category"),
		Price:        price,
		Availability: domain.Availability(f.value("availability")),
	}, files)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, view)
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	patch := domain.ServicePatch{
		Name:         f.optional("name"),
		Description:  f.optional("description"),
		CategoryName: f.optional("category"),
	}
	if f.optional("price") != nil {
		price, err := f.float("price")
		if err != nil {
			middleware.WriteError(w, h.logger, err)
			return
		}
		patch.Price = &price
	}
	if v := f.optional("availability"); v != nil {
		a := domain.Availability(*v)
		patch.Availability = &a
	}
	files, err := serviceMedia(f)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	view, err := h.catalog.Update(r.Context(), actor(r), chi.URLParam(r, "id"), patch, files)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ServiceHandler) RemoveImages(w http.ResponseWriter, r *http.Request) {
	var req RemoveImagesRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	svc, err := h.catalog.RemoveImages(r.Context(), actor(r), chi.URLParam(r, "id"), req.ImageURLs)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Images removed successfully",
		"service": svc,
	})
}

func (h *ServiceHandler) RemoveIcon(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.RemoveIcon(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Icon removed successfully",
		"service": svc,
	})
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Service deleted successfully")
}
