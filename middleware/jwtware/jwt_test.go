package jwtware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-users/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

type stubClaims struct {
	subject string
	role    string
}

func (s stubClaims) Subject() string { return s.subject }
func (s stubClaims) Role() string    { return s.role }

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func signTestToken(t *testing.T, use string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "john@example.com",
		"role":      "employee",
		"token_use": use,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func newGuardedApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(jwtware.AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"subject": claims.Subject(), "role": claims.Role()})
	})
	return app
}

func TestGuardWithTokenValidator(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		TokenValidator: stubValidator{claims: stubClaims{subject: "john@example.com", role: "employee"}},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer whatever")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestGuardValidatorRejection(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		TokenValidator: stubValidator{err: errors.New("token is expired")},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer whatever")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Bearer", res.Header.Get(fiber.HeaderWWWAuthenticate))
}

func TestGuardMissingToken(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		TokenValidator: stubValidator{claims: stubClaims{subject: "john@example.com"}},
	})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic am9objpwdzEyMw=="},
		{"scheme only", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			res, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
		})
	}
}

func TestGuardSigningKeyFallback(t *testing.T) {
	// no TokenValidator configured, the guard builds one from the key
	app := newGuardedApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: testSigningKey, JWTAlg: "HS256"},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signTestToken(t, "access"))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestGuardSigningKeyFallbackRejectsRefreshUse(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: testSigningKey, JWTAlg: "HS256"},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signTestToken(t, "refresh"))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestGuardSigningKeyFallbackRejectsBadSignature(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte("some-other-key"), JWTAlg: "HS256"},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signTestToken(t, "access"))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestGuardFilter(t *testing.T) {
	app := fiber.New()
	app.Get("/maybe", jwtware.New(jwtware.Config{
		Filter:         func(c *fiber.Ctx) bool { return c.Query("skip") == "1" },
		TokenValidator: stubValidator{err: errors.New("nope")},
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	res, err := app.Test(httptest.NewRequest("GET", "/maybe?skip=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestGuardCustomContextKey(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		ContextKey:     "session",
		TokenValidator: stubValidator{claims: stubClaims{subject: "john@example.com"}},
	}), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("session").(jwtware.AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.Subject())
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer whatever")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestNewPanicsWithoutKeyMaterial(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.New(jwtware.Config{})
	})
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		TokenValidator: stubValidator{},
	})

	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "access", cfg.RequiredTokenUse)
	assert.NotNil(t, cfg.SuccessHandler)
	assert.NotNil(t, cfg.ErrorHandler)
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,cookie:jwt,query:token,param:token")
	assert.Len(t, extractors, 4)

	// unknown sources and malformed entries are skipped
	extractors = jwtware.GetExtractors("bogus:thing,header")
	assert.Len(t, extractors, 0)
}

func TestExtractFromQuery(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		TokenLookup:    "query:auth_token",
		TokenValidator: stubValidator{claims: stubClaims{subject: "john@example.com"}},
	})

	res, err := app.Test(httptest.NewRequest("GET", "/protected?auth_token=whatever", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestExtractFromCookie(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		TokenLookup:    "cookie:jwt",
		TokenValidator: stubValidator{claims: stubClaims{subject: "john@example.com"}},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "whatever"})

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
