package transport

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/middleware"

	"go.uber.org/zap"
)

const (
	// maxMultipartBytes bounds a multipart body: five 10MB images plus
	// an icon and form fields
	maxMultipartBytes = 64 << 20
	multipartMemory   = 8 << 20
)

// Guards are the access checks handlers attach to their routes
type Guards struct {
	Auth      func(http.Handler) http.Handler
	Role      func(roles ...domain.Role) func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

// NewGuards builds the guards around an authenticator. A nil rate limiter
// disables rate limiting.
func NewGuards(auth middleware.Authenticator, rateLimit func(http.Handler) http.Handler, logger *zap.Logger) Guards {
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}
	return Guards{
		Auth: middleware.AuthMiddleware(auth, logger),
		Role: func(roles ...domain.Role) func(http.Handler) http.Handler {
			return middleware.RequireRole(logger, roles...)
		},
		RateLimit: rateLimit,
	}
}

// MessageResponse is the body of operations that only confirm success
type MessageResponse struct {
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	middleware.RespondWithJSON(w, status, MessageResponse{Message: msg})
}

// actor returns the authenticated caller. Routes behind Guards.Auth always
// have one.
func actor(r *http.Request) *domain.User {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

// decode reads a JSON body and writes the failure response when it cannot
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}

// form is a parsed multipart request. Close releases the uploaded parts.
type form struct {
	r     *http.Request
	files []multipart.File
}

// parseForm accepts multipart and urlencoded bodies
func parseForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, formError(err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, formError(err)
	}
	return &form{r: r}, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.InvalidArgument("request body too large")
	}
	return domain.InvalidArgument("invalid form data")
}

func (f *form) value(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

// optional returns nil when the field was not sent
func (f *form) optional(key string) *string {
	if _, ok := f.r.Form[key]; !ok {
		return nil
	}
	v := f.value(key)
	return &v
}

func (f *form) float(key string) (float64, error) {
	v := f.value(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, domain.InvalidArgument(fmt.Sprintf("%s must be a number", key))
	}
	return n, nil
}

// filesFor opens the parts uploaded under key
func (f *form) filesFor(key string, limit int) ([]media.File, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	headers := f.r.MultipartForm.File[key]
	if len(headers) > limit {
		return nil, domain.InvalidArgument(fmt.Sprintf("at most %d files may be sent as %s", limit, key))
	}

	out := make([]media.File, 0, len(headers))
	for _, h := range headers {
		file, err := h.Open()
		if err != nil {
			return nil, domain.InvalidArgument("failed to read uploaded file")
		}
		f.files = append(f.files, file)
		out = append(out, media.File{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Content:     file,
		})
	}
	return out, nil
}

func (f *form) Close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}

// parseTime accepts RFC 3339 timestamps and plain dates
func parseTime(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.InvalidArgument("scheduledDate must be a date")
}
