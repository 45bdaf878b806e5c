package auth

import (
	"encoding/json"
	"net/http"
	"slices"
)

// Token headers. Clients send both tokens as plain request headers rather
// than an Authorization bearer.
const (
	HeaderAccessToken  = "accessToken"
	HeaderRefreshToken = "refreshToken"
)

// Middleware resolves the request's token headers through svc and injects
// the resulting identity into the request context.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := svc.ResolveSubject(r.Context(),
				r.Header.Get(HeaderAccessToken),
				r.Header.Get(HeaderRefreshToken),
			)
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects requests whose identity does not carry one of roles.
// It must run after Middleware.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, ErrTokenValidation)
				return
			}
			if !slices.Contains(roles, id.Principal.Role) {
				WriteError(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes err as a JSON error envelope. Internal failures are
// reported with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	e := AsError(err)
	msg := messages[e.Code]
	if e.Code == ErrRegistrationInvalid.Code && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: e.Code, Message: msg},
	})
}

var messages = map[string]string{
	"EMAIL_IS_NOT_FOUND":             "no account is registered with this email",
	"AUTHORIZATION_ERROR":            "invalid credentials",
	"EMAIL_ALREADY_EXISTS":           "an account with this email already exists",
	"VALIDATION_ERROR":               "request validation failed",
	"REFRESH_TOKEN_EXPIRED":          "refresh token has expired",
	"REFRESH_TOKEN_VALIDATION_ERROR": "refresh token is invalid",
	"REFRESH_TOKEN_ERROR":            "could not refresh the session",
	"TOKEN_EXPIRED":                  "access token has expired",
	"TOKEN_SIGNATURE_ERROR":          "access token signature is invalid",
	"TOKEN_MALFORMED":                "access token is malformed",
	"TOKEN_VALIDATION_ERROR":         "access token is invalid",
	"TOKEN_GENERATION_ERROR":         "could not issue tokens",
	"TOKEN_ERROR":                    "could not read access token",
	"USER_NOT_FOUND":                 "account not found",
	"FORBIDDEN":                      "insufficient permissions",
}
