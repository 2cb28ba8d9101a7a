package auth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danutirta/menu-access/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token shape the identity provider issues. The engine only
// consumes verified identity; it never authenticates credentials itself.
type Claims struct {
	UserID        int64  `json:"user_id"`
	Role          string `json:"role"`
	CompanyID     int64  `json:"company_id"`
	CompanyAccess string `json:"company_access"`
	jwt.RegisteredClaims
}

// Middleware validates bearer tokens and puts the resulting Identity on the
// request context.
type Middleware struct {
	secret []byte
	logger *slog.Logger
}

func NewMiddleware(secret []byte, logger *slog.Logger) *Middleware {
	return &Middleware{secret: secret, logger: logger}
}

func (m *Middleware) ParseToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, err
	}

	access := CompanyAccess(claims.CompanyAccess)
	if claims.CompanyAccess == "" {
		access = CompanyAccessOwn
	} else if access, err = ParseCompanyAccess(claims.CompanyAccess); err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:        claims.UserID,
		Role:          role,
		CompanyID:     claims.CompanyID,
		CompanyAccess: access,
	}, nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			m.logger.Warn("identity middleware: missing authorization token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		identity, err := m.ParseToken(token)
		if err != nil {
			m.logger.Warn("identity middleware: token rejected", "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route subtree to identities at or above the given role.
// Structural menu mutations are mounted behind RequireRole(RoleRoot).
func RequireRole(min Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !identity.Role.AtLeast(min) {
				logger.Warn("access denied: insufficient role",
					"user_id", identity.UserID,
					"role", identity.Role,
					"required_role", min)
				status, body := internal.ErrStructureGate.ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if err := json.NewEncoder(w).Encode(body); err != nil {
					logger.Error("failed to encode error response", "error", err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
