package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub/internal/apperr"
)

const principalKey = "principal"

// PrincipalResolver loads the current role and status of a token subject.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (Principal, error)
}

// Authenticate enforces bearer JWT tokens and stores the resolved Principal
// in the gin context.
func Authenticate(issuer *Issuer, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "missing bearer token")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "invalid token")
			return
		}

		principal, err := resolver.ResolvePrincipal(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "account no longer exists")
				return
			}
			slog.ErrorContext(c.Request.Context(), "resolve principal", "user_id", claims.Subject, "error", err)
			abort(c, http.StatusInternalServerError, "", "failed to resolve session")
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRoles rejects principals that are not active or lack every listed role.
func RequireRoles(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "not authenticated")
			return
		}
		if !p.HasRole(roles...) {
			abort(c, http.StatusForbidden, apperr.KindForbidden, "access denied")
			return
		}
		c.Next()
	}
}

// RequireActive rejects pending and archived accounts.
func RequireActive() gin.HandlerFunc {
	return RequireRoles(RoleStudent, RoleOfficer, RoleAdmin)
}

// FromContext returns the principal set by Authenticate.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// WithPrincipal stores p on the gin context.
func WithPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func abort(c *gin.Context, status int, kind apperr.Kind, msg string) {
	body := gin.H{"message": msg}
	if kind != "" {
		body["code"] = kind
	}
	c.AbortWithStatusJSON(status, body)
}
