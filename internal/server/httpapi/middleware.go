package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/akgupta-cs/mediavault/internal/common"
)

type callerKey struct{}

// callerID returns the authenticated user id stored by authMiddleware.
func callerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey{}).(string)
	return id
}

// authMiddleware resolves the bearer token to a user id. Requests
// without a valid token never reach the handlers behind it.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(r.Context(), w, common.ErrInvalidToken)
			return
		}

		userID, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
