package api

import (
	"net/http"
	"strings"

	"github.com/alecgard/pitchside/internal/auth"
)

// headerIsUser selects the credential flow on login. Any value other than
// "true" logs the caller in as GUEST.
const headerIsUser = "isUser"

// authHandler groups user session HTTP handlers.
type authHandler struct {
	svc *auth.Service
}

func newAuthHandler(svc *auth.Service) *authHandler {
	return &authHandler{svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	asUser := strings.EqualFold(strings.TrimSpace(r.Header.Get(headerIsUser)), "true")

	var req credentialsRequest
	if asUser {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
			return
		}
	}

	pair, err := h.svc.Login(r.Context(), req.Email, req.Password, asUser)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Register handles POST /api/v1/auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	pair, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "register", "user", req.Email)
	writeJSON(w, http.StatusCreated, pair)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token travels in
// the refreshToken header.
func (h *authHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.svc.Refresh(r.Context(), r.Header.Get(auth.HeaderRefreshToken))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, auth.ErrTokenValidation)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// UpdateMe handles PATCH /api/v1/auth/me.
func (h *authHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, auth.ErrTokenValidation)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	profile, err := h.svc.UpdateProfileName(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "update_profile", strings.ToLower(string(id.Principal.Role)), profile.ID)
	writeJSON(w, http.StatusOK, profile)
}
