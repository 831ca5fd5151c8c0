package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/service"
)

// OrderHandler handles HTTP requests for order, execution, and
// portfolio endpoints.
type OrderHandler struct {
	facade *service.Facade
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(facade *service.Facade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// createOrderRequest is the JSON request body for POST /orders.
// Monetary fields are decimal strings.
type createOrderRequest struct {
	AssetID   string  `json:"asset_id"`
	Side      string  `json:"side"`
	Kind      string  `json:"kind"`
	Quantity  string  `json:"quantity"`
	Price     *string `json:"price"`
	ExpiresAt *string `json:"expires_at"`
}

// executeMarketRequest is the JSON request body for POST /executions.
type executeMarketRequest struct {
	AssetID  string `json:"asset_id"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity must be a decimal string")
		return
	}

	draft := service.OrderDraft{
		AssetID:  req.AssetID,
		Side:     domain.OrderSide(req.Side),
		Kind:     domain.OrderKind(req.Kind),
		Quantity: quantity,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price must be a decimal string")
			return
		}
		draft.Price = &price
	}
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "expires_at must be a valid RFC 3339 timestamp")
			return
		}
		draft.ExpiresAt = &t
	}

	order, err := h.facade.CreateOrder(principal(r), draft)
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, order)
}

// Cancel handles DELETE /orders/{order_id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.facade.CancelOrder(principal(r), chi.URLParam(r, "order_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

// ListMine handles GET /orders, optionally filtered by ?status=.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.OrderStatus(v)
		switch s {
		case domain.OrderStatusPending, domain.OrderStatusPartiallyFilled,
			domain.OrderStatusFilled, domain.OrderStatusCancelled, domain.OrderStatusExpired:
			status = &s
		default:
			WriteError(w, http.StatusBadRequest, "validation_error",
				"status must be one of: pending, partially-filled, filled, cancelled, expired")
			return
		}
	}

	orders, err := h.facade.LoadUserOrders(principal(r), status)
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// ExecuteMarket handles POST /executions.
func (h *OrderHandler) ExecuteMarket(w http.ResponseWriter, r *http.Request) {
	var req executeMarketRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity must be a decimal string")
		return
	}

	trade, err := h.facade.ExecuteMarketOrder(principal(r), req.AssetID, domain.OrderSide(req.Side), quantity)
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, trade)
}

// ListMyTrades handles GET /me/trades.
func (h *OrderHandler) ListMyTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.facade.LoadUserTrades(principal(r))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

// ListMyPositions handles GET /me/positions.
func (h *OrderHandler) ListMyPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.facade.LoadUserPositions(principal(r))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}
