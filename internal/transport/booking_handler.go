package transport

import (
	"net/http"
	"strconv"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateBookingRequest is the allow-listed staff update of a booking
type UpdateBookingRequest struct {
	ScheduledDate *time.Time `json:"scheduledDate"`
	Address       *string    `json:"address"`
	Phone         *string    `json:"phone"`
	Notes         *string    `json:"notes"`
	Status        *string    `json:"status"`
	PaymentStatus *string    `json:"paymentStatus"`
}

// UpdateStatusRequest is the status change payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BookingHandler serves the booking lifecycle endpoints
type BookingHandler struct {
	bookings service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

func (h *BookingHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/bookings", func(r chi.Router) {
		r.Use(g.Auth)

		r.Post("/", h.Create)
		r.With(g.Role(domain.RoleAdmin)).Get("/", h.ListAll)
		r.With(g.Role(domain.RoleAdmin, domain.RoleProvider)).Get("/service/{serviceId}", h.ListByService)
		r.Get("/{id}", h.ListByUser)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/images", h.AttachImages)
		r.Delete("/{id}/images/{imageIndex}", h.RemoveImage)
	})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	in := service.CreateBookingInput{
		ServiceID: f.value("service"),
		Address:   f.value("address"),
		Phone:     f.value("phone"),
		Notes:     f.value("notes"),
	}
	if v := f.value("scheduledDate"); v != "" {
		if in.ScheduledDate, err = parseTime(v); err != nil {
			middleware.WriteError(w, h.logger, err)
			return
		}
	}
	images, err := f.filesFor("images", domain.MaxImages)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	view, err := h.bookings.Create(r.Context(), actor(r), in, images)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, view)
}

func (h *BookingHandler) AttachImages(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	images, err := f.filesFor("images", domain.MaxImages)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	booking, err := h.bookings.AttachImages(r.Context(), actor(r), chi.URLParam(r, "id"), images)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "imageIndex"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "Image not found")
		return
	}

	booking, err := h.bookings.RemoveImage(r.Context(), actor(r), chi.URLParam(r, "id"), index)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Image deleted successfully",
		"booking": booking,
	})
}

func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListAll(r.Context(), actor(r))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, bookings)
}

// ListByUser lists the bookings created by the user in the path
func (h *BookingHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListByUser(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) ListByService(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListByService(r.Context(), actor(r), chi.URLParam(r, "serviceId"))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateBookingRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	patch := domain.BookingPatch{
		ScheduledDate: req.ScheduledDate,
		Address:       req.Address,
		Phone:         req.Phone,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		s := domain.BookingStatus(*req.Status)
		patch.Status = &s
	}
	if req.PaymentStatus != nil {
		s := domain.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &s
	}

	booking, err := h.bookings.UpdateFields(r.Context(), actor(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	booking, err := h.bookings.UpdateStatus(r.Context(), actor(r), chi.URLParam(r, "id"), domain.BookingStatus(req.Status))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Booking status updated successfully",
		"booking": booking,
	})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Booking deleted successfully")
}
