package handler

import (
	"encoding/json"
	"net/http"

	"tradepost-rest-api/internal/middleware"
	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ListingHandler handles marketplace listing HTTP requests.
type ListingHandler struct {
	listingService *service.ListingService
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// Create handles POST /api/v1/listings
// The authenticated caller becomes the listing's creator.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var spec model.ListingSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	listing, err := h.listingService.Create(r.Context(), user.ID, spec)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, listing)
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.ListAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, listings)
}

// Retire handles DELETE /api/v1/listings/{listing_id}
func (h *ListingHandler) Retire(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	listingID := chi.URLParam(r, "listing_id")
	if listingID == "" {
		response.Error(w, apierror.BadRequest("listing_id is required"))
		return
	}

	if err := h.listingService.Retire(r.Context(), user.ID, listingID); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}
