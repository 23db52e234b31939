package httpx

import (
	"net/http"

	"chemtutor/internal/session"
)

// RequireSession returns the request's session, writing a 500 if the session
// middleware did not run.
func RequireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		WriteError(r.Context(), w, CodeInternal, "session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}
