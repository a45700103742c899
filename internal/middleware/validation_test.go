package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRegistration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=customer provider"`
}

func jsonRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(withName, withEmail, withPassword, withRole bool) bool {
			reqMap := make(map[string]interface{})
			if withName {
				reqMap["name"] = "John Doe"
			}
			if withEmail {
				reqMap["email"] = "john@example.com"
			}
			if withPassword {
				reqMap["password"] = "secret1"
			}
			if withRole {
				reqMap["role"] = "customer"
			}

			var in testRegistration
			err := DecodeAndValidate(jsonRequest(t, reqMap), &in)

			if withName && withEmail && withPassword && withRole {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RoleMustBeEnumerated(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only customer and provider may register", prop.ForAll(
		func(role string) bool {
			var in testRegistration
			err := DecodeAndValidate(jsonRequest(t, map[string]string{
				"name": "Ann", "email": "ann@example.com", "password": "secret1", "role": role,
			}), &in)
			return (err == nil) == (role == "customer" || role == "provider")
		},
		gen.OneGenOf(gen.OneConstOf("customer", "provider", "admin", "Customer"), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	var in testRegistration
	err := DecodeAndValidate(jsonRequest(t, map[string]string{
		"name": "Ann", "email": "not-an-email", "password": "123", "role": "customer",
	}), &in)
	require.Error(t, err)

	got := FormatValidationErrors(err)
	assert.ElementsMatch(t, []ValidationError{
		{Field: "email", Message: "Invalid email format"},
		{Field: "password", Message: "Value is too short"},
	}, got)
}

func TestRespondWithDecodeError(t *testing.T) {
	var in testRegistration

	err := DecodeAndValidate(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &in)
	w := httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decodeEnvelope(t, w).Message)

	err = DecodeAndValidate(jsonRequest(t, map[string]string{}), &in)
	w = httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Details, "validation_errors")

	big := `{"name":"` + strings.Repeat("x", MaxJSONBodyBytes) + `"}`
	err = DecodeAndValidate(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)), &in)
	w = httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
