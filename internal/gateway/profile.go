// Package gateway is the edge of the system: it exposes the caller's
// identity-aware-proxy profile and forwards API calls to the services.
package gateway

import (
	"net/http"
	"strings"

	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
)

const (
	HeaderUserEmail = "X-Goog-Authenticated-User-Email"
	HeaderUserID    = "X-Goog-Authenticated-User-Id"

	iapPrefix = "accounts.google.com:"
)

type Profile struct {
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

// ProfileHandler handles GET /profile
func ProfileHandler(w http.ResponseWriter, r *http.Request) {
	email := r.Header.Get(HeaderUserEmail)
	if strings.TrimSpace(email) == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, Profile{
		Email: strings.TrimPrefix(email, iapPrefix),
		Sub:   strings.TrimPrefix(r.Header.Get(HeaderUserID), iapPrefix),
	})
}
