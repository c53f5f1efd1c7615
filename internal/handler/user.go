package handler

import (
	"encoding/json"
	"net/http"

	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"
)

// UserHandler handles user registration and listing.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Name string `json:"name"`
}

// Register handles POST /api/v1/users
// The response is the only place the generated API key is ever returned.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.userService.Register(r.Context(), req.Name)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, user)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, users)
}
