package handler

import (
	"encoding/json"
	"net/http"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"
)

// AuthHandler handles session token HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	userService  *service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		userService:  userService,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /api/v1/auth/token
// Exchanges a user's API key for a short-lived session token.
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.APIKey == "" {
		response.Error(w, apierror.BadRequest("api_key is required"))
		return
	}

	user, err := h.userService.ResolveAPIKey(r.Context(), req.APIKey)
	if err != nil {
		response.Error(w, err)
		return
	}

	token, err := h.tokenService.GenerateToken(r.Context(), model.TokenData{
		UserID:   user.ID,
		UserName: user.Name,
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
