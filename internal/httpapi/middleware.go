package httpapi

import (
	"net/http"
	"strings"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
)

// withAuth verifies the bearer access token and stores the caller's user id
// in the request context. A missing/invalid/expired token is 401
// (spec.md §7).
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(s.logger, w, apierror.New(apierror.KindUnauthenticated, "missing bearer token"))
			return
		}
		userID, err := s.issuer.VerifyAccessToken(strings.TrimPrefix(header, prefix))
		if err != nil {
			writeError(s.logger, w, apierror.New(apierror.KindUnauthenticated, "invalid or expired access token"))
			return
		}
		r = r.WithContext(withUserID(r.Context(), userID))
		next(w, r)
	}
}

// withMembership verifies the caller is a member of the warehouse named by
// the {w} path value; absence is 403 (spec.md §6).
func (s *Server) withMembership(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID := r.PathValue("w")
		userID := userIDFromContext(r.Context())
		if err := s.membership.RequireMember(r.Context(), s.db, userID, warehouseID); err != nil {
			writeError(s.logger, w, err)
			return
		}
		next(w, r)
	}
}
