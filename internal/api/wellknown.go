package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/pitchside.json.
const wellKnownManifest = `{
  "name": "Pitchside",
  "description": "Sports event platform API",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "token-headers",
    "access_header": "accessToken",
    "refresh_header": "refreshToken"
  },
  "endpoints": {
    "auth": "/api/v1/auth",
    "organizations": "/api/v1/organizations",
    "events": "/api/v1/events",
    "notifications": "/api/v1/notifications"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static Pitchside well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
