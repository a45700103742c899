package service

import (
	"context"
	"testing"
	"time"

	"servicehub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registration(email, password string, role domain.Role) RegisterInput {
	return RegisterInput{
		Name:     "Jane Doe",
		Email:    email,
		Password: password,
		Address:  "1 Main St",
		Phone:    "555-0100",
		Role:     role,
	}
}

func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string) bool {
			f := newFixture(t)
			ctx := context.Background()

			user, err := f.users.Register(ctx, registration(email, password, domain.RoleCustomer))
			if err != nil {
				t.Logf("FAIL: registration failed: %v", err)
				return false
			}

			stored, err := f.repos.Users.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: Could not find stored user: %v", err)
				return false
			}

			return stored.PasswordHash != password &&
				stored.PasswordHash == user.PasswordHash &&
				bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) == nil &&
				stored.AccountStatus == domain.AccountActive
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("access tokens carry the user id and role", prop.ForAll(
		func(email string, role domain.Role) bool {
			f := newFixture(t)
			ctx := context.Background()

			user, err := f.users.Register(ctx, registration(email, "secret-pass", role))
			if err != nil {
				t.Logf("FAIL: registration failed: %v", err)
				return false
			}

			token, _, err := f.users.Login(ctx, email, "secret-pass")
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			claims, err := f.users.ValidateToken(token)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			return claims.UserID == user.ID && claims.Role == role &&
				claims.ExpiresAt != nil && claims.IssuedAt != nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.OneConstOf(domain.RoleCustomer, domain.RoleProvider),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration("a@example.com", "secret-pass", domain.RoleAdmin))
	requireKind(t, domain.KindInvalidArgument, err)

	_, err = f.users.Register(ctx, registration("a@example.com", "12345", domain.RoleCustomer))
	requireKind(t, domain.KindInvalidArgument, err)

	missing := registration("a@example.com", "secret-pass", domain.RoleCustomer)
	missing.Phone = ""
	_, err = f.users.Register(ctx, missing)
	requireKind(t, domain.KindInvalidArgument, err)

	_, err = f.users.Register(ctx, registration("a@example.com", "secret-pass", domain.RoleCustomer))
	require.NoError(t, err)
	_, err = f.users.Register(ctx, registration("A@Example.com", "secret-pass", domain.RoleProvider))
	requireKind(t, domain.KindConflict, err)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)

	admin, err := f.users.CreateAdmin(context.Background(), registration("root@example.com", "secret-pass", domain.RoleCustomer))

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.Register(ctx, registration("jane@example.com", "secret-pass", domain.RoleCustomer))
	require.NoError(t, err)

	_, _, unknown := f.users.Login(ctx, "nobody@example.com", "secret-pass")
	_, _, wrong := f.users.Login(ctx, "jane@example.com", "wrong-pass")

	requireKind(t, domain.KindUnauthenticated, unknown)
	requireKind(t, domain.KindUnauthenticated, wrong)
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestLogin_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, domain.RoleAdmin)
	user, err := f.users.Register(ctx, registration("jane@example.com", "secret-pass", domain.RoleCustomer))
	require.NoError(t, err)

	token, _, err := f.users.Login(ctx, "jane@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = f.users.ChangeAccountStatus(ctx, admin, user.ID, domain.AccountSuspended)
	require.NoError(t, err)

	_, _, err = f.users.Login(ctx, "jane@example.com", "secret-pass")
	requireKind(t, domain.KindForbidden, err)

	_, err = f.users.Authenticate(ctx, token)
	requireKind(t, domain.KindUnauthenticated, err)
}

func TestAuthenticate_ResolvesCurrentRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, domain.RoleAdmin)
	user, err := f.users.Register(ctx, registration("jane@example.com", "secret-pass", domain.RoleCustomer))
	require.NoError(t, err)
	token, _, err := f.users.Login(ctx, "jane@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = f.users.ChangeRole(ctx, admin, user.ID, domain.RoleProvider)
	require.NoError(t, err)

	got, err := f.users.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProvider, got.Role)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, domain.RoleCustomer)

	sign := func(secret string, expires time.Time, method jwt.SigningMethod, key interface{}) string {
		claims := &Claims{
			UserID: user.ID,
			Role:   user.Role,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(expires),
			},
		}
		if key == nil {
			key = []byte(secret)
		}
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	ghost := &Claims{UserID: "ghost", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	ghostToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ghost).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tokens := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": sign("other-secret", time.Now().Add(time.Hour), jwt.SigningMethodHS256, nil),
		"expired":      sign(testSecret, time.Now().Add(-time.Minute), jwt.SigningMethodHS256, nil),
		"unsigned":     sign("", time.Now().Add(time.Hour), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"unknown user": ghostToken,
	}

	var messages []string
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.Authenticate(ctx, token)
			requireKind(t, domain.KindUnauthenticated, err)
			messages = append(messages, err.Error())
		})
	}
	for _, m := range messages {
		assert.Equal(t, messages[0], m)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.users.Register(ctx, registration("jane@example.com", "secret-pass", domain.RoleCustomer))
	require.NoError(t, err)
	other := f.user(t, domain.RoleCustomer)

	_, err = f.users.UpdateProfile(ctx, user, domain.ProfilePatch{})
	requireKind(t, domain.KindInvalidArgument, err)

	taken := other.Email
	_, err = f.users.UpdateProfile(ctx, user, domain.ProfilePatch{Email: &taken})
	requireKind(t, domain.KindConflict, err)

	name, password := "Jane Smith", "new-secret"
	updated, err := f.users.UpdateProfile(ctx, user, domain.ProfilePatch{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, domain.RoleCustomer, updated.Role)

	_, _, err = f.users.Login(ctx, "jane@example.com", "new-secret")
	assert.NoError(t, err)
}

func TestProfilePicture_ReplaceReleasesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, domain.RoleCustomer)

	_, err := f.users.DeleteProfilePicture(ctx, user)
	requireKind(t, domain.KindInvalidArgument, err)

	first, err := f.users.UploadProfilePicture(ctx, user, jpeg("me.jpg"))
	require.NoError(t, err)
	require.NotNil(t, first.ProfilePicture)
	assert.Contains(t, first.ProfilePicture.PublicID, "profiles/")

	second, err := f.users.UploadProfilePicture(ctx, first, jpeg("me2.jpg"))
	require.NoError(t, err)
	assert.False(t, f.store.Has(first.ProfilePicture.PublicID))
	assert.True(t, f.store.Has(second.ProfilePicture.PublicID))

	cleared, err := f.users.DeleteProfilePicture(ctx, second)
	require.NoError(t, err)
	assert.Nil(t, cleared.ProfilePicture)
	assert.Equal(t, 0, f.store.Len())
}

func TestAdminOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, domain.RoleAdmin)
	customer := f.user(t, domain.RoleCustomer)
	f.user(t, domain.RoleProvider)

	_, err := f.users.ChangeRole(ctx, customer, customer.ID, domain.RoleAdmin)
	requireKind(t, domain.KindForbidden, err)
	_, err = f.users.ChangeRole(ctx, admin, customer.ID, "owner")
	requireKind(t, domain.KindInvalidArgument, err)
	_, err = f.users.ChangeAccountStatus(ctx, admin, customer.ID, "banned")
	requireKind(t, domain.KindInvalidArgument, err)
	_, err = f.users.ChangeRole(ctx, admin, "missing", domain.RoleProvider)
	requireKind(t, domain.KindNotFound, err)

	providers, err := f.users.ListByRole(ctx, admin, domain.RoleProvider)
	require.NoError(t, err)
	assert.Len(t, providers, 1)
	_, err = f.users.ListByRole(ctx, customer, domain.RoleCustomer)
	requireKind(t, domain.KindForbidden, err)
}
