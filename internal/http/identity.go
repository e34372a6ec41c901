package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/aircnc-server/internal/auth"
)

// IdentityHandlerFunc receives the verified caller as an argument.
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, id auth.Identity)

type TokenVerifier interface {
	Verify(header string) (auth.Identity, error)
}

// RequireIdentity verifies the bearer token before calling next. Failures
// answer 401 or 403 and next never runs.
func RequireIdentity(v TokenVerifier, next IdentityHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := v.Verify(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, id)
	}
}

// RequireOwner lets the request through only when the URL parameter param
// equals the caller's email.
func RequireOwner(param string, next IdentityHandlerFunc) IdentityHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
		if err := auth.Authorize(id.Email, chi.URLParam(r, param)); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, id)
	}
}
