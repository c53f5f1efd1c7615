package handler

import (
	"encoding/json"
	"net/http"

	"tradepost-rest-api/internal/middleware"
	"tradepost-rest-api/internal/service"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/response"
)

// TradeHandler handles trade execution requests.
type TradeHandler struct {
	engine *service.SettlementEngine
}

// NewTradeHandler creates a new trade handler.
func NewTradeHandler(engine *service.SettlementEngine) *TradeHandler {
	return &TradeHandler{engine: engine}
}

// TradeRequest represents the request body for executing a trade.
type TradeRequest struct {
	ListingID string `json:"listing_id"`
	Units     int64  `json:"units"`
}

// Execute handles POST /api/v1/trades
// The authenticated caller is the buyer; the settlement engine does the rest.
func (h *TradeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	receipt, err := h.engine.ExecuteTrade(r.Context(), user.ID, req.ListingID, req.Units)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, receipt)
}
