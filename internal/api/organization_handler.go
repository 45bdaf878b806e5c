package api

import (
	"net/http"

	"github.com/alecgard/pitchside/internal/auth"
)

// organizationHandler groups organization session HTTP handlers.
type organizationHandler struct {
	svc *auth.Service
}

func newOrganizationHandler(svc *auth.Service) *organizationHandler {
	return &organizationHandler{svc: svc}
}

// Login handles POST /api/v1/organizations/login.
func (h *organizationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	pair, err := h.svc.LoginOrganization(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Register handles POST /api/v1/organizations/register.
func (h *organizationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterOrganizationInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	pair, err := h.svc.RegisterOrganization(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "register", "organization", req.Email)
	writeJSON(w, http.StatusCreated, pair)
}

// Validate handles GET /api/v1/organizations/validate. An expired access
// token is renewed from the refresh token; the new one is returned in the
// accessToken response header.
func (h *organizationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, renewed, err := h.svc.ValidateOrganizationToken(r.Context(),
		r.Header.Get(auth.HeaderAccessToken),
		r.Header.Get(auth.HeaderRefreshToken),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if renewed != "" {
		w.Header().Set(auth.HeaderAccessToken, renewed)
	}
	writeJSON(w, http.StatusOK, id)
}
