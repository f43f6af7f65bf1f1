package jwt

import (
	"encoding/json"
	"net/http"
)

// Guard wraps a route handler with an access check.
type Guard func(http.HandlerFunc) http.HandlerFunc

// Require admits tokens carrying one of roles. A nil manager means auth is
// disabled and every request passes.
func Require(mgr *Manager, roles ...Role) Guard {
	return mgr.guard(func(r *http.Request, claims *Claims) error {
		return RoleAllowed(claims, roles...)
	})
}

// RequireSelf admits ADMIN tokens and DRIVER tokens whose subject equals the
// pathParam segment of the request.
func RequireSelf(mgr *Manager, pathParam string) Guard {
	return mgr.guard(func(r *http.Request, claims *Claims) error {
		switch claims.Role {
		case RoleAdmin:
			return nil
		case RoleDriver:
			if claims.Subject == r.PathValue(pathParam) {
				return nil
			}
			return ErrSubjectForbidden
		default:
			return ErrRoleForbidden
		}
	})
}

func (m *Manager) guard(check func(*http.Request, *Claims) error) Guard {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if m == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := FromAuthorization(r)
			if err != nil {
				deny(w, http.StatusUnauthorized, err)
				return
			}
			claims, err := m.ParseAndValidate(raw)
			if err != nil {
				deny(w, http.StatusUnauthorized, err)
				return
			}
			if err := check(r, claims); err != nil {
				deny(w, http.StatusForbidden, err)
				return
			}
			next(w, r.WithContext(InjectClaims(r.Context(), claims)))
		}
	}
}

func deny(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
