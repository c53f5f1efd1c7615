package middleware

import (
	"context"
	"net/http"
	"strings"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
)

// AuthUserKey is the key for storing the resolved user in request context.
const AuthUserKey contextKey = "auth_user"

// AuthUser is the already-resolved identity handlers work with.
// Handlers never see raw credentials.
type AuthUser struct {
	ID   string
	Name string
}

// CredentialResolver maps a presented API key to a user identity.
// Implemented by service.UserService.
type CredentialResolver interface {
	ResolveAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
	Resolver     CredentialResolver
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Session tokens (X-Token) are tried first, then bearer
// API keys. On success the resolved user is placed in the context.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try X-Token first (session tokens)
			token := r.Header.Get("X-Token")
			if token != "" && cfg.TokenService != nil {
				tokenData, err := cfg.TokenService.ValidateToken(r.Context(), token)
				if err != nil {
					writeError(w, apierror.Unauthorized("Invalid or expired token"))
					return
				}

				ctx := context.WithValue(r.Context(), AuthUserKey, &AuthUser{
					ID:   tokenData.UserID,
					Name: tokenData.UserName,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Fall back to Authorization: Bearer <api key>
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or a bearer API key."))
				return
			}

			if cfg.Resolver == nil {
				writeError(w, apierror.Unauthorized(""))
				return
			}

			user, err := cfg.Resolver.ResolveAPIKey(r.Context(), apiKey)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid API key"))
				return
			}

			ctx := context.WithValue(r.Context(), AuthUserKey, &AuthUser{
				ID:   user.ID,
				Name: user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetAuthUser retrieves the authenticated user from request context.
func GetAuthUser(ctx context.Context) *AuthUser {
	if user, ok := ctx.Value(AuthUserKey).(*AuthUser); ok {
		return user
	}
	return nil
}
