package transport

import (
	"net/http"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryRequest is the create and update payload of a category
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CategoryHandler serves the category endpoints
type CategoryHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCategoryHandler(catalog service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(g.Auth, g.Role(domain.RoleAdmin))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	category, err := h.catalog.CreateCategory(r.Context(), actor(r), req.Name, description)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), actor(r), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Category deleted successfully")
}
