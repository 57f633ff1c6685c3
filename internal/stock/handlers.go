package stock

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-apotek/internal/common"
	"github.com/noah-isme/backend-apotek/internal/obs"
)

// Handler exposes stock ledger endpoints.
type Handler struct {
	ledger *Ledger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Ledger *Ledger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{ledger: cfg.Ledger}
}

type trackRequest struct {
	ItemID          string `json:"itemId" validate:"required,uuid"`
	Quantity        int    `json:"quantity" validate:"gte=0"`
	ReorderLevel    *int   `json:"reorderLevel"`
	ReorderQuantity *int   `json:"reorderQuantity"`
	Location        string `json:"location"`
	SupplierID      string `json:"supplierId"`
	Notes           string `json:"notes"`
}

// Track handles POST /api/v1/stock.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return
	}
	entry, err := h.ledger.Track(r.Context(), itemID, req.Quantity, Options{
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
		Location:        req.Location,
		SupplierID:      req.SupplierID,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, entryResponse(entry))
}

// List handles GET /api/v1/stock.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	entries := h.ledger.List()
	data := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		data = append(data, entryBody(e))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// Low handles GET /api/v1/stock/low.
func (h *Handler) Low(w http.ResponseWriter, _ *http.Request) {
	entries := h.ledger.LowStock()
	data := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		data = append(data, entryBody(e))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// Detail handles GET /api/v1/stock/{itemId}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	entry, err := h.ledger.Get(itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, entryResponse(entry))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// Add handles POST /api/v1/stock/{itemId}/add.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	h.applyQuantity(w, r, h.ledger.AddStock)
}

// Remove handles POST /api/v1/stock/{itemId}/remove.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	h.applyQuantity(w, r, h.ledger.RemoveStock)
}

// SetQuantity handles PUT /api/v1/stock/{itemId}/quantity.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	h.applyQuantity(w, r, h.ledger.SetQuantity)
}

type reorderRequest struct {
	ReorderLevel    int `json:"reorderLevel" validate:"gte=0"`
	ReorderQuantity int `json:"reorderQuantity" validate:"gt=0"`
}

// UpdateReorder handles PUT /api/v1/stock/{itemId}/reorder.
func (h *Handler) UpdateReorder(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := h.ledger.UpdateReorderSettings(r.Context(), itemID, req.ReorderLevel, req.ReorderQuantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, entryResponse(entry))
}

func (h *Handler) applyQuantity(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, itemID uuid.UUID, quantity int) (Entry, error)) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := op(r.Context(), itemID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, entryResponse(entry))
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return uuid.Nil, false
	}
	return itemID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownItem):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrInsufficientStock):
		if obs.StockRemovalsRejected != nil {
			obs.StockRemovalsRejected.Inc()
		}
		common.JSONError(w, http.StatusConflict, common.CodeInsufficientStock, err.Error(), nil)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidQuantity, err.Error(), nil)
	case errors.Is(err, ErrInvalidThreshold):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidThreshold, err.Error(), nil)
	case errors.Is(err, ErrAlreadyTracked):
		common.JSONError(w, http.StatusConflict, common.CodeAlreadyTracked, err.Error(), nil)
	default:
		common.WriteAppError(w, err)
	}
}

func entryResponse(e Entry) map[string]any {
	return map[string]any{"data": entryBody(e)}
}

func entryBody(e Entry) map[string]any {
	return map[string]any{
		"entry": e,
		"level": Classify(e),
	}
}
