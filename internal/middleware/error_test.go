package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicehub/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errorKinds = []domain.ErrorKind{
	domain.KindUnauthenticated,
	domain.KindForbidden,
	domain.KindNotFound,
	domain.KindInvalidArgument,
	domain.KindConflict,
	domain.KindUpstream,
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Error
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)
	logger := zap.NewNop()

	properties.Property("every domain error renders the same envelope", prop.ForAll(
		func(pick int, message string) bool {
			kind := errorKinds[pick]
			w := httptest.NewRecorder()
			WriteError(w, logger, &domain.Error{Kind: kind, Message: message})

			if w.Code != StatusFor(kind) {
				return false
			}
			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(w.Code) || response.Error.Kind != kind {
				return false
			}
			if response.Error.Message != message {
				return false
			}
			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.IntRange(0, len(errorKinds)-1),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStatusFor(t *testing.T) {
	cases := map[domain.ErrorKind]int{
		domain.KindUnauthenticated: http.StatusUnauthorized,
		domain.KindForbidden:       http.StatusForbidden,
		domain.KindNotFound:        http.StatusNotFound,
		domain.KindInvalidArgument: http.StatusBadRequest,
		domain.KindConflict:        http.StatusConflict,
		domain.KindUpstream:        http.StatusBadGateway,
		domain.KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), kind)
	}
}

func TestWriteError_HidesInternalCauses(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, zap.NewNop(), errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	detail := decodeEnvelope(t, w)
	assert.Equal(t, domain.KindInternal, detail.Kind)
	assert.Equal(t, "internal server error", detail.Message)
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "email", Message: "Invalid email format"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeEnvelope(t, w)
	assert.Equal(t, domain.KindInvalidArgument, detail.Kind)
	assert.Contains(t, detail.Details, "validation_errors")
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.KindInternal, decodeEnvelope(t, w).Kind)
}

func TestProperty_JSONResponsesAreValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("JSON responses are valid and parseable", prop.ForAll(
		func(data map[string]string) bool {
			w := httptest.NewRecorder()
			RespondWithJSON(w, http.StatusOK, data)

			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}
			var result map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return false
			}
			for k, v := range data {
				if result[k] != v {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
