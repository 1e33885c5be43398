package middleware

import (
	"net/http"
	"strings"

	"github.com/rslater/leadscout/internal/clerk"
	"github.com/rslater/leadscout/internal/handler"
)

const sessionCookieName = "__session"

// RequireSession verifies the Clerk session token and populates the identity
// in the request context. Requests without a valid session, or whose identity
// carries no email, are redirected to the public landing page.
func RequireSession(verifier *clerk.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				redirectToLanding(w, r)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				redirectToLanding(w, r)
				return
			}
			if id.Email == "" {
				// Provisioning requires an email; treat like no session.
				redirectToLanding(w, r)
				return
			}

			ctx := handler.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken pulls the token from the session cookie or, for API clients,
// an Authorization bearer header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func redirectToLanding(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
