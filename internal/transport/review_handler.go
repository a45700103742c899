package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReviewHandler serves the review endpoints
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

func (h *ReviewHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/reviews", func(r chi.Router) {
		// the public listing takes a service id, the writes a review id
		r.Get("/{id}", h.ListByService)

		r.Group(func(r chi.Router) {
			r.Use(g.Auth)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func rating(f *form) (*int, error) {
	v := f.optional("rating")
	if v == nil || *v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, domain.InvalidArgument("rating must be a whole number")
	}
	return &n, nil
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	in := service.CreateReviewInput{
		ServiceID: f.value("service"),
		Comment:   f.value("comment"),
	}
	n, err := rating(f)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	if n != nil {
		in.Rating = *n
	}
	images, err := f.filesFor("images", domain.MaxImages)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	view, err := h.reviews.Create(r.Context(), actor(r), in, images)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, view)
}

func (h *ReviewHandler) ListByService(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// Update accepts the new rating and comment, a deletedImages JSON array of
// image URLs, and new images
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	var patch domain.ReviewPatch
	if patch.Rating, err = rating(f); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	patch.Comment = f.optional("comment")
	if raw := f.value("deletedImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &patch.DeletedImages); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "deletedImages must be a JSON array of URLs")
			return
		}
	}
	images, err := f.filesFor("images", domain.MaxImages)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	view, err := h.reviews.Update(r.Context(), actor(r), chi.URLParam(r, "id"), patch, images)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Review deleted successfully")
}
