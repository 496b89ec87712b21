package users

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-users/middleware/jwtware"
)

// AccessTokenValidator adapts a TokenService into the guard's
// TokenValidator, pinning validation to the access variant so refresh
// tokens never clear the middleware.
func AccessTokenValidator(tokens TokenService) jwtware.TokenValidator {
	return accessValidator{tokens: tokens}
}

type accessValidator struct {
	tokens TokenService
}

func (v accessValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString, TokenUseAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRoute builds the session guard for every protected endpoint.
// Passing a nil errorHandler keeps the guard's default: a generic 401 with
// a WWW-Authenticate: Bearer challenge.
func ProtectedRoute(cfg Config, tokens TokenService, errorHandler fiber.ErrorHandler) fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: AccessTokenValidator(tokens),
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:  cfg.GetAuthScheme(),
		ContextKey:  cfg.GetContextKey(),
		TokenLookup: cfg.GetTokenLookup(),
	})
}
