package users

import (
	"errors"
	"strings"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrInvalidCredentials is the single error returned for any failed login.
// Unknown email and wrong password collapse into it on purpose so responses
// never reveal whether an account exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when registering an email that already exists
var ErrEmailTaken = errors.New("email already registered")

// ErrNoEmptyString password input cannot be empty
var ErrNoEmptyString = errors.New("password cannot be empty")

// ErrTokenExpired the token is past its expiry timestamp
var ErrTokenExpired = errors.New("token is expired")

// ErrTokenMalformed bad signature, wrong algorithm, or unparseable token
var ErrTokenMalformed = errors.New("token is malformed")

// ErrWrongTokenUse a token was presented to an endpoint expecting the other
// token_use variant (e.g. a refresh token sent as a bearer credential)
var ErrWrongTokenUse = errors.New("token use mismatch")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsAuthRejection reports whether err should surface as a generic 401 at the
// HTTP boundary. Every token or credential failure maps here so no endpoint
// distinguishes which check failed.
func IsAuthRejection(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrIdentityNotFound) ||
		errors.Is(err, ErrWrongTokenUse) ||
		errors.Is(err, ErrUnableToMapClaims) ||
		IsTokenExpiredError(err) ||
		IsMalformedError(err)
}
