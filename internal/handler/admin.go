package handler

import (
	"net/http"

	"tradepost-rest-api/internal/repository"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles administrative HTTP requests, authenticated with
// the X-Login-Key header instead of user credentials.
type AdminHandler struct {
	userService *service.UserService
	ledger      repository.LedgerStore
	adminKey    string
}

// NewAdminHandler creates a new admin handler. With an empty adminKey
// every admin request is rejected.
func NewAdminHandler(userService *service.UserService, ledger repository.LedgerStore, adminKey string) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		ledger:      ledger,
		adminKey:    adminKey,
	}
}

func (h *AdminHandler) authorize(r *http.Request) error {
	if h.adminKey == "" || r.Header.Get("X-Login-Key") != h.adminKey {
		return apierror.Forbidden("")
	}
	return nil
}

// DeleteUser handles DELETE /api/v1/admin/users/{user_id}
// Deleting a user cascades to their listings and inbox entries.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		response.Error(w, err)
		return
	}

	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		response.Error(w, apierror.BadRequest("user_id is required"))
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		response.Error(w, err)
		return
	}

	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to collect stats"))
		return
	}

	response.OK(w, stats)
}
