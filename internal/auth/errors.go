package auth

import (
	"errors"
	"net/http"
)

// Error is a session failure carrying a stable machine-readable code and the
// HTTP status it maps to. Two Errors match under errors.Is when their codes
// are equal.
type Error struct {
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) with(cause error) *Error {
	return &Error{Code: e.Code, Status: e.Status, Err: cause}
}

var (
	ErrEmailNotFound       = &Error{Code: "EMAIL_IS_NOT_FOUND", Status: http.StatusUnauthorized}
	ErrAuthorization       = &Error{Code: "AUTHORIZATION_ERROR", Status: http.StatusUnauthorized}
	ErrEmailExists         = &Error{Code: "EMAIL_ALREADY_EXISTS", Status: http.StatusConflict}
	ErrRegistrationInvalid = &Error{Code: "VALIDATION_ERROR", Status: http.StatusUnprocessableEntity}
	ErrRefreshExpired      = &Error{Code: "REFRESH_TOKEN_EXPIRED", Status: http.StatusUnauthorized}
	ErrRefreshValidation   = &Error{Code: "REFRESH_TOKEN_VALIDATION_ERROR", Status: http.StatusUnauthorized}
	ErrRefresh             = &Error{Code: "REFRESH_TOKEN_ERROR", Status: http.StatusInternalServerError}
	ErrTokenExpired        = &Error{Code: "TOKEN_EXPIRED", Status: http.StatusUnauthorized}
	ErrTokenSignature      = &Error{Code: "TOKEN_SIGNATURE_ERROR", Status: http.StatusUnauthorized}
	ErrTokenMalformed      = &Error{Code: "TOKEN_MALFORMED", Status: http.StatusUnauthorized}
	ErrTokenValidation     = &Error{Code: "TOKEN_VALIDATION_ERROR", Status: http.StatusUnauthorized}
	ErrTokenSubjectMissing = &Error{Code: "TOKEN_VALIDATION_ERROR", Status: http.StatusBadRequest}
	ErrTokenGeneration     = &Error{Code: "TOKEN_GENERATION_ERROR", Status: http.StatusInternalServerError}
	ErrToken               = &Error{Code: "TOKEN_ERROR", Status: http.StatusInternalServerError}
	ErrProfileNotFound     = &Error{Code: "USER_NOT_FOUND", Status: http.StatusNotFound}
	ErrForbidden           = &Error{Code: "FORBIDDEN", Status: http.StatusForbidden}
	ErrInternal            = &Error{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError}
)

// Credential-level failures returned by Validator. Session flows translate
// them into Errors.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// AsError extracts an *Error from err, falling back to ErrInternal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.with(err)
}
