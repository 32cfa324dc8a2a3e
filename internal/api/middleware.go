package api

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/auth"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	userKey   contextKey = "user"
)

// bearerToken returns the token from the Authorization header. WebSocket
// clients cannot set headers, so GET requests may pass ?token= instead.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("token")
	}
	return ""
}

// AuthMiddleware validates the JWT, rejects revoked tokens and deleted
// users, and adds the claims and the current user to the context.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, tokenStr)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
			if err != nil {
				zap.L().Error("checking token revocation", zap.Error(err))
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if revoked {
				jsonError(w, http.StatusUnauthorized, "token revoked")
				return
			}

			// Roles and plans change; the stored user is authoritative.
			user, err := store.GetUser(r.Context(), db, claims.UserID)
			if err != nil {
				zap.L().Error("loading user", zap.Error(err))
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil || user.DeletedAt != nil {
				jsonError(w, http.StatusUnauthorized, "account no longer exists")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(user.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission returns middleware that checks the permission matrix.
func RequirePermission(perm model.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.Can(user.Role, perm) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AIUsageMiddleware answers 503 when no provider is configured and
// otherwise counts the request against the user's monthly allowance.
func AIUsageMiddleware(db *sql.DB, svc *ai.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil || !svc.Enabled() {
				writeError(w, ai.ErrDisabled, "")
				return
			}
			user := GetUser(r.Context())
			if user == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if _, err := store.ConsumeAIRequest(r.Context(), db, user.ID, time.Now()); err != nil {
				if errors.Is(err, store.ErrAIQuotaExceeded) {
					limit := model.LimitsFor(user.Subscription.Plan).AIRequests
					jsonResponse(w, http.StatusTooManyRequests, map[string]any{
						"error": err.Error(),
						"limit": limit,
						"plan":  user.Subscription.Plan,
					})
					return
				}
				writeError(w, err, "failed to meter AI request")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// GetUser retrieves the authenticated user from the context.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// actorOf describes user to the collection guards.
func actorOf(user *model.User) inventory.Actor {
	return inventory.Actor{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Plan:     user.Subscription.Plan,
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes WebSocket upgrades through to the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// LoggingMiddleware logs HTTP requests with method, path, status, and
// duration, and records them in the request metrics.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			metrics.ObserveHTTP(r.Pattern, r.Method, rec.status, elapsed)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", elapsed.Round(time.Millisecond)),
			)
		})
	}
}
