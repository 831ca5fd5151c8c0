package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assetra/tradecore/internal/service"
)

// EscrowHandler handles HTTP requests for escrow endpoints.
type EscrowHandler struct {
	facade *service.Facade
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(facade *service.Facade) *EscrowHandler {
	return &EscrowHandler{facade: facade}
}

// createEscrowRequest is the JSON request body for POST /escrows.
type createEscrowRequest struct {
	TradeID string `json:"trade_id"`
}

// disputeEscrowRequest is the JSON request body for POST
// /escrows/{escrow_id}/dispute.
type disputeEscrowRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /escrows.
func (h *EscrowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEscrowRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	escrow, err := h.facade.CreateEscrow(principal(r), req.TradeID)
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, escrow)
}

// ListActive handles GET /escrows.
func (h *EscrowHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	escrows, err := h.facade.LoadActiveEscrows(principal(r))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"escrows": escrows})
}

// Fund handles POST /escrows/{escrow_id}/fund.
func (h *EscrowHandler) Fund(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.facade.FundEscrow(principal(r), chi.URLParam(r, "escrow_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, escrow)
}

// Release handles POST /escrows/{escrow_id}/release.
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.facade.ReleaseEscrow(principal(r), chi.URLParam(r, "escrow_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, escrow)
}

// Dispute handles POST /escrows/{escrow_id}/dispute.
func (h *EscrowHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var req disputeEscrowRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	escrow, err := h.facade.DisputeEscrow(principal(r), chi.URLParam(r, "escrow_id"), req.Reason)
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, escrow)
}

// Refund handles POST /escrows/{escrow_id}/refund.
func (h *EscrowHandler) Refund(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.facade.RefundEscrow(principal(r), chi.URLParam(r, "escrow_id"))
	if err != nil {
		MapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, escrow)
}
