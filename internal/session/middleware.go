package session

import (
	"context"
	"net/http"

	"chemtutor/internal/middleware"
)

const Header = "X-Session-ID"

type ctxKey struct{}

// Middleware attaches the caller's session, creating one when the header is
// missing or stale. The effective ID is echoed back in the response header.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := store.GetOrCreate(r.Header.Get(Header))
			w.Header().Set(Header, s.ID)

			ctx := middleware.WithSessionID(r.Context(), s.ID)
			ctx = NewContext(ctx, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
