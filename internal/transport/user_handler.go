package transport

import (
	"net/http"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/middleware"
	"servicehub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Address  string `json:"address" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=customer provider"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Message        string           `json:"message"`
	Token          string           `json:"token"`
	Role           domain.Role      `json:"role"`
	ProfilePicture *domain.MediaRef `json:"profilePicture"`
}

// UpdateProfileRequest lists the fields a user may change on their account
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// ChangeRoleRequest is the admin role change payload
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer provider admin"`
}

// ChangeStatusRequest is the admin account status payload
type ChangeStatusRequest struct {
	Status string `json:"accountStatus" validate:"required,oneof=active suspended"`
}

// CookieConfig controls the token cookie
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	cookie      CookieConfig
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, cookie CookieConfig, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookie:      cookie,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/auth", func(r chi.Router) {
		// Public routes
		r.With(g.RateLimit).Post("/register", h.Register)
		r.With(g.RateLimit).Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(g.Auth)
			r.Get("/me", h.GetProfile)
			r.Put("/update", h.UpdateProfile)
			r.Post("/upload-profile-picture", h.UploadProfilePicture)
			r.Delete("/delete-profile-picture", h.DeleteProfilePicture)

			r.Group(func(r chi.Router) {
				r.Use(g.Role(domain.RoleAdmin))
				r.Get("/users", h.listByRole(domain.RoleCustomer))
				r.Get("/service-providers", h.listByRole(domain.RoleProvider))
				r.Put("/role/{id}", h.ChangeRole)
				r.Put("/status/{id}", h.ChangeStatus)
			})
		})
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.logger.Debug("Registration failed", zap.Error(err))
		middleware.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and sets the token cookie
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		middleware.WriteError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cookie.TTL.Seconds()),
	})

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Message:        "Logged in successfully",
		Token:          token,
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
	})
}

// Logout clears the token cookie
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// GetProfile returns the caller's own record
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, actor(r))
}

// UpdateProfile applies the caller's allow-listed profile changes
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor(r), domain.ProfilePatch{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UploadProfilePicture replaces the caller's profile picture
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	defer f.Close()

	files, err := f.filesFor("profilePicture", 1)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	if len(files) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "Please upload an image file")
		return
	}

	user, err := h.userService.UploadProfilePicture(r.Context(), actor(r), files[0])
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Profile picture uploaded successfully",
		"profilePicture": user.ProfilePicture,
	})
}

// DeleteProfilePicture removes the caller's profile picture
func (h *UserHandler) DeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	if _, err := h.userService.DeleteProfilePicture(r.Context(), actor(r)); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Profile picture deleted successfully")
}

// ChangeRole sets another user's role
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), actor(r), chi.URLParam(r, "id"), domain.Role(req.Role))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// ChangeStatus activates or suspends an account
func (h *UserHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.ChangeAccountStatus(r.Context(), actor(r), chi.URLParam(r, "id"), domain.AccountStatus(req.Status))
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) listByRole(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.userService.ListByRole(r.Context(), actor(r), role)
		if err != nil {
			middleware.WriteError(w, h.logger, err)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, users)
	}
}
