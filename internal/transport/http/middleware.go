package http

import (
	"net/http"
	"strings"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
)

// authedHandler receives the authenticated identity alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, claims app.Claims)

// withAuth requires a valid bearer token.
func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, claims)
	}
}

// withAdmin additionally requires the admin role.
func (s *Server) withAdmin(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if claims.Role != domain.RoleAdmin {
			s.writeJSON(w, http.StatusForbidden, errorBody{errorPayload{Code: "FORBIDDEN", Message: "admin role required"}})
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) authenticate(r *http.Request) (app.Claims, error) {
	return s.auth.ParseToken(extractToken(r))
}

// extractToken reads the bearer header, falling back to a query parameter for
// websocket clients that cannot set headers.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return r.URL.Query().Get("token")
}

// clientIP resolves the caller address behind reverse proxies.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
