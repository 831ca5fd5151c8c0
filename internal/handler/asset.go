package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assetra/tradecore/internal/service"
)

// AssetHandler handles HTTP requests for asset and market data
// endpoints.
type AssetHandler struct {
	facade *service.Facade
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(facade *service.Facade) *AssetHandler {
	return &AssetHandler{facade: facade}
}

// List handles GET /assets.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.facade.LoadAssets()
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// Get handles GET /assets/{asset_id}.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.facade.LoadAssetDetails(chi.URLParam(r, "asset_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, asset)
}

// GetBook handles GET /assets/{asset_id}/book.
func (h *AssetHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.facade.LoadOrderBook(chi.URLParam(r, "asset_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, book)
}

// GetStats handles GET /assets/{asset_id}/stats.
func (h *AssetHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.facade.LoadMarketStats(chi.URLParam(r, "asset_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListTrades handles GET /assets/{asset_id}/trades.
func (h *AssetHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.facade.LoadTradeHistory(chi.URLParam(r, "asset_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

// ListAllTrades handles GET /trades.
func (h *AssetHandler) ListAllTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.facade.LoadTradeHistory("")
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": trades})
}
