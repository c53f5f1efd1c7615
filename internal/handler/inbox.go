package handler

import (
	"net/http"

	"tradepost-rest-api/internal/middleware"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// InboxHandler handles per-user delivery inbox requests.
type InboxHandler struct {
	inboxService *service.InboxService
}

// NewInboxHandler creates a new inbox handler.
func NewInboxHandler(inboxService *service.InboxService) *InboxHandler {
	return &InboxHandler{inboxService: inboxService}
}

// List handles GET /api/v1/inbox
// Returns the authenticated caller's pending entries.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	entries, err := h.inboxService.ListForUser(r.Context(), user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, entries)
}

// Claim handles DELETE /api/v1/inbox/{entry_id}
func (h *InboxHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	entryID := chi.URLParam(r, "entry_id")
	if entryID == "" {
		response.Error(w, apierror.BadRequest("entry_id is required"))
		return
	}

	if err := h.inboxService.Claim(r.Context(), user.ID, entryID); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}
