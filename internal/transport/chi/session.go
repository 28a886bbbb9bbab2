package chi

import (
	"context"
	"net/http"

	"github.com/kailas-cloud/docsearch/internal/session"
)

type sessionKey struct{}

// SessionMiddleware attaches the browser's session to the request context,
// issuing a docsearch_session cookie when the browser has none or an
// expired one.
func SessionMiddleware(store *session.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(session.CookieName); err == nil {
				id = c.Value
			}

			sess, created := store.Resolve(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
		})
	}
}

// sessionFrom returns the session stored by SessionMiddleware.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	if sess == nil {
		panic("chi: route mounted without SessionMiddleware")
	}
	return sess
}
