package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"servicehub/internal/config"
	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository/inmem"
	"servicehub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		JWT:    config.JWTConfig{Secret: "e2e-secret", AccessExpiry: 60},
		Media:  config.MediaConfig{Driver: config.MediaDriverMemory, Timeout: time.Second},
	}
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	deps   *Dependencies
	store  *media.MemoryStore
	config *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := media.NewMemoryStore()
	deps := &Dependencies{Repos: inmem.New(), Media: store}
	cfg := testConfig()

	srv := httptest.NewServer(NewRouter(cfg, zap.NewNop(), deps))
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, deps: deps, store: store, config: cfg}
}

func (h *harness) send(method, path, contentType string, body io.Reader, token string) (int, []byte) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(h.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, out
}

func (h *harness) json(method, path string, payload interface{}, token string) (int, []byte) {
	h.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(payload))
	}
	return h.send(method, path, "application/json", &buf, token)
}

func (h *harness) multipart(method, path string, fields map[string]string, field string, images int, token string) (int, []byte) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	for i := 0; i < images; i++ {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="photo%d.jpg"`, field, i))
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		require.NoError(h.t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	return h.send(method, path, mw.FormDataContentType(), &buf, token)
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	status, body := h.json(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(h.t, http.StatusOK, status, string(body))
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(body, &resp))
	return resp.Token
}

func (h *harness) register(email string, role domain.Role) string {
	h.t.Helper()
	status, body := h.json(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     strings.Split(email, "@")[0],
		"email":    email,
		"password": "secret-pass",
		"address":  "1 Main St",
		"phone":    "555-0100",
		"role":     string(role),
	}, "")
	require.Equal(h.t, http.StatusCreated, status, string(body))
	return h.login(email, "secret-pass")
}

func (h *harness) admin() string {
	h.t.Helper()
	users := service.NewUserService(h.deps.Repos.Users, media.NewManager(h.store, zap.NewNop(), time.Second),
		h.config.JWT.Secret, time.Hour, zap.NewNop())
	_, err := users.CreateAdmin(context.Background(), service.RegisterInput{
		Name: "Root", Email: "root@example.com", Password: "root-pass", Address: "HQ", Phone: "555-0000",
	})
	require.NoError(h.t, err)
	return h.login("root@example.com", "root-pass")
}

func decodeID(t *testing.T, body []byte) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestMarketplaceFlow(t *testing.T) {
	h := newHarness(t)

	provider := h.register("pat@example.com", domain.RoleProvider)
	customer := h.register("cam@example.com", domain.RoleCustomer)
	stranger := h.register("sam@example.com", domain.RoleCustomer)
	admin := h.admin()

	status, body := h.json(http.MethodPost, "/api/categories", map[string]string{"name": "Plumbing"}, provider)
	require.Equal(t, http.StatusForbidden, status, string(body))
	status, body = h.json(http.MethodPost, "/api/categories", map[string]string{"name": "Plumbing"}, admin)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = h.multipart(http.MethodPost, "/api/services", map[string]string{
		"name":        "Pipe Repair",
		"description": "Fix leaking pipes",
		"category":    "Plumbing",
		"price":       "75",
	}, "images", 2, provider)
	require.Equal(t, http.StatusCreated, status, string(body))
	serviceID := decodeID(t, body)
	assert.Equal(t, 2, h.store.Len())

	status, body = h.multipart(http.MethodPost, "/api/services", map[string]string{
		"name": "Drain Cleaning", "description": "Unclog", "category": "Plumbing", "price": "40",
	}, "images", 1, customer)
	require.Equal(t, http.StatusForbidden, status, string(body))
	assert.Equal(t, 2, h.store.Len())

	status, body = h.multipart(http.MethodPost, "/api/bookings", map[string]string{
		"service":       serviceID,
		"scheduledDate": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"address":       "1 Main St",
		"phone":         "555-0100",
	}, "images", 1, customer)
	require.Equal(t, http.StatusCreated, status, string(body))
	bookingID := decodeID(t, body)
	assert.Equal(t, 3, h.store.Len())

	status, body = h.json(http.MethodPatch, "/api/bookings/"+bookingID+"/status", map[string]string{"status": "confirmed"}, stranger)
	require.Equal(t, http.StatusForbidden, status, string(body))
	status, body = h.json(http.MethodPatch, "/api/bookings/"+bookingID+"/status", map[string]string{"status": "confirmed"}, provider)
	require.Equal(t, http.StatusOK, status, string(body))
	var updated struct {
		Booking domain.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, domain.BookingConfirmed, updated.Booking.Status)

	status, body = h.json(http.MethodPost, "/api/payments", map[string]interface{}{
		"booking": bookingID, "amount": 75, "transactionId": "txn-1", "paymentMethod": "card",
	}, customer)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = h.json(http.MethodDelete, "/api/bookings/"+bookingID, nil, stranger)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = h.json(http.MethodDelete, "/api/bookings/"+bookingID, nil, customer)
	require.Equal(t, http.StatusOK, status)
	// the booking image is gone, the service images stay
	assert.Equal(t, 2, h.store.Len())

	status, _ = h.json(http.MethodGet, "/api/services/"+serviceID, nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCatalogShowsUnknownProvider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cat := &domain.Category{Name: "Electrical", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, h.deps.Repos.Categories.Create(ctx, cat))
	require.NoError(t, h.deps.Repos.Services.Create(ctx, &domain.Service{
		Name:         "Rewire",
		Description:  "Full rewire",
		CategoryID:   cat.ID,
		Price:        300,
		Availability: domain.Available,
		ProviderID:   "gone-provider",
		Images:       []domain.MediaRef{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}))

	status, body := h.json(http.MethodGet, "/api/services", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var views []domain.ServiceView
	require.NoError(t, json.Unmarshal(body, &views))
	require.Len(t, views, 1)
	assert.Equal(t, domain.UnknownProviderName, views[0].ProviderName)
}

func TestOperationalEndpoints(t *testing.T) {
	h := newHarness(t)

	status, body := h.json(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	h.json(http.MethodGet, "/api/services", nil, "")
	status, body = h.send(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "servicehub_http_requests_total")

	status, body = h.json(http.MethodGet, "/api/nowhere", nil, "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), `"kind":"not_found"`)

	status, _ = h.json(http.MethodGet, "/api/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
