// Package handlers provides HTTP request handlers for the inventory API
// endpoints: catalog lookups, lot receiving, FEFO dispensing, transfer
// suggestions, expiry alerts and health checks. Handlers receive their
// dependencies by injection and validate all user input before it reaches
// the domain layer.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
	"github.com/codice/inventory-api/logging"
	"github.com/codice/inventory-api/metrics"
)

// Handler bundles the injected dependencies for all endpoints
type Handler struct {
	catalog   interfaces.CatalogStore
	ledger    interfaces.LotLedger
	dispenser interfaces.Dispenser
	advisor   interfaces.Advisor
	board     interfaces.SuggestionBoard
	checker   interfaces.HealthChecker
	validator interfaces.InputValidator
}

// New creates a handler with injected dependencies
func New(catalog interfaces.CatalogStore, ledger interfaces.LotLedger,
	dispenser interfaces.Dispenser, advisor interfaces.Advisor,
	board interfaces.SuggestionBoard, checker interfaces.HealthChecker,
	validator interfaces.InputValidator) *Handler {
	return &Handler{
		catalog:   catalog,
		ledger:    ledger,
		dispenser: dispenser,
		advisor:   advisor,
		board:     board,
		checker:   checker,
		validator: validator,
	}
}

// RespondWithJSON writes a JSON response
func (h *Handler) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *Handler) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithDomainError maps the domain error taxonomy onto HTTP codes
func (h *Handler) respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrNotFound):
		h.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrInsufficientStock):
		h.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		logging.Error("Unhandled domain error", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListBranches returns the branch catalog
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.catalog.Branches())
}

// GetBranch returns one branch by ID
func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := h.validator.ValidateBranchID(chi.URLParam(r, "branchID"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	branch, found := h.catalog.BranchByID(branchID)
	if !found {
		h.RespondWithError(w, http.StatusNotFound, "Branch not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, branch)
}

// ListItems returns the item catalog
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.catalog.Items())
}

// GetItem returns one item by SKU
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	sku, err := h.validator.ValidateSKU(chi.URLParam(r, "sku"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, found := h.catalog.ItemBySKU(sku)
	if !found {
		h.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, item)
}

// SearchItems matches items by name, generic name or category
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "name")
	if err := h.validator.ValidateInput(term); err != nil {
		logging.Warn("Unusual user input", "term", term)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches := h.catalog.SearchItems(term)
	if len(matches) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "No items match the search term")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, matches)
}

// receiveLotRequest is the POST /lots body
type receiveLotRequest struct {
	SKU        string          `json:"sku"`
	BranchID   int             `json:"branchId"`
	LotNumber  string          `json:"lotNumber"`
	Quantity   int             `json:"quantity"`
	ExpiryDate string          `json:"expiryDate"` // YYYY-MM-DD
	UnitCost   decimal.Decimal `json:"unitCost"`
}

// ReceiveLot ingests a new stock lot (the receiving workflow entry point)
func (h *Handler) ReceiveLot(w http.ResponseWriter, r *http.Request) {
	var req receiveLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if _, found := h.catalog.ItemBySKU(req.SKU); !found {
		h.RespondWithError(w, http.StatusNotFound, "Unknown item "+req.SKU)
		return
	}
	if _, found := h.catalog.BranchByID(req.BranchID); !found {
		h.RespondWithError(w, http.StatusNotFound, "Unknown branch")
		return
	}
	if err := h.validator.ValidateQuantity(req.Quantity); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "expiryDate must be YYYY-MM-DD")
		return
	}

	lot, err := h.ledger.Receive(req.SKU, req.BranchID, req.LotNumber, req.Quantity, expiry, req.UnitCost)
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}

	metrics.LotsReceivedTotal.Inc()
	metrics.LotsHeld.Set(float64(h.ledger.TotalLots()))

	h.RespondWithJSON(w, http.StatusCreated, lot)
}

type adjustLotRequest struct {
	QuantityRemaining int `json:"quantityRemaining"`
}

// AdjustLot applies an audited stock correction to a single lot
func (h *Handler) AdjustLot(w http.ResponseWriter, r *http.Request) {
	lotID := chi.URLParam(r, "lotID")
	if err := h.validator.ValidateInput(lotID); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req adjustLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.ledger.Adjust(lotID, req.QuantityRemaining); err != nil {
		h.respondWithDomainError(w, err)
		return
	}

	lot, _ := h.ledger.LotByID(lotID)
	h.RespondWithJSON(w, http.StatusOK, lot)
}

// ListLots returns the available lots for an item at a branch in FEFO order
func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	sku, err := h.validator.ValidateSKU(chi.URLParam(r, "sku"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	branchID, err := h.validator.ValidateBranchID(chi.URLParam(r, "branchID"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, found := h.catalog.ItemBySKU(sku); !found {
		h.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, h.ledger.AvailableLots(sku, branchID))
}

// Dispense allocates stock for one dispense request
func (h *Handler) Dispense(w http.ResponseWriter, r *http.Request) {
	var req entities.DispenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	record, ok := h.dispenseOne(w, req)
	if !ok {
		return
	}

	h.RespondWithJSON(w, http.StatusOK, record)
}

// batchOutcome reports one request's result inside a batch response
type batchOutcome struct {
	Request entities.DispenseRequest `json:"request"`
	Record  *entities.DispenseRecord `json:"record,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// DispenseBatch processes a list of dispense requests, reporting per-request
// outcomes. A failed request does not abort the rest of the batch.
func (h *Handler) DispenseBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []entities.DispenseRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(reqs) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "Empty batch")
		return
	}

	outcomes := make([]batchOutcome, 0, len(reqs))
	succeeded := 0
	for _, req := range reqs {
		record, err := h.allocate(req)
		if err != nil {
			outcomes = append(outcomes, batchOutcome{Request: req, Error: err.Error()})
			continue
		}
		succeeded++
		outcomes = append(outcomes, batchOutcome{Request: req, Record: &record})
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"succeeded": succeeded,
		"failed":    len(reqs) - succeeded,
		"outcomes":  outcomes,
	})
}

// dispenseOne validates and allocates a single request, writing the error
// response itself when something is wrong.
func (h *Handler) dispenseOne(w http.ResponseWriter, req entities.DispenseRequest) (entities.DispenseRecord, bool) {
	record, err := h.allocate(req)
	if err != nil {
		h.respondWithDomainError(w, err)
		return entities.DispenseRecord{}, false
	}
	return record, true
}

// allocate runs catalog checks, then the allocator, then metrics.
func (h *Handler) allocate(req entities.DispenseRequest) (entities.DispenseRecord, error) {
	if _, found := h.catalog.ItemBySKU(req.SKU); !found {
		return entities.DispenseRecord{}, fmt.Errorf("%w: unknown item %s", entities.ErrNotFound, req.SKU)
	}
	if _, found := h.catalog.BranchByID(req.BranchID); !found {
		return entities.DispenseRecord{}, fmt.Errorf("%w: unknown branch %d", entities.ErrNotFound, req.BranchID)
	}
	if err := h.validator.ValidateQuantity(req.Quantity); err != nil {
		return entities.DispenseRecord{}, err
	}

	record, err := h.dispenser.Allocate(req.SKU, req.BranchID, req.Quantity)
	if err != nil {
		return entities.DispenseRecord{}, err
	}

	branch := strconv.Itoa(req.BranchID)
	metrics.DispensedUnitsTotal.WithLabelValues(branch).Add(float64(record.Dispensed()))
	if record.Unfulfilled > 0 {
		metrics.UnfulfilledUnitsTotal.WithLabelValues(branch).Add(float64(record.Unfulfilled))
	}

	return record, nil
}

// ListDispenses returns the dispense audit feed for a branch, newest first
func (h *Handler) ListDispenses(w http.ResponseWriter, r *http.Request) {
	branchID, err := h.validator.ValidateBranchID(chi.URLParam(r, "branchID"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	h.RespondWithJSON(w, http.StatusOK, h.ledger.Dispenses(branchID, limit))
}

// Suggestions serves the latest published advisor output
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": h.board.Suggestions(),
		"lastRun":     h.board.LastRun().Format(time.RFC3339),
	})
}

// SuggestItem runs the advisor on demand for one item
func (h *Handler) SuggestItem(w http.ResponseWriter, r *http.Request) {
	sku, err := h.validator.ValidateSKU(chi.URLParam(r, "sku"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.advisor.Suggest(sku)
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []entities.TransferSuggestion{}
	}

	h.RespondWithJSON(w, http.StatusOK, suggestions)
}

// ExpiryAlerts serves the expiry alert feed, optionally filtered by branch
func (h *Handler) ExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	branchID := 0
	if raw := r.URL.Query().Get("branch"); raw != "" {
		parsed, err := h.validator.ValidateBranchID(raw)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		branchID = parsed
	}

	// Serve the published snapshot; the scheduler refreshes it every run
	alerts := h.board.Alerts()
	if branchID != 0 {
		filtered := make([]entities.ExpiryAlert, 0, len(alerts))
		for _, a := range alerts {
			if a.BranchID == branchID {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	h.RespondWithJSON(w, http.StatusOK, alerts)
}

// BranchInventory aggregates the stock position per item at one branch
func (h *Handler) BranchInventory(w http.ResponseWriter, r *http.Request) {
	branchID, err := h.validator.ValidateBranchID(chi.URLParam(r, "branchID"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, found := h.catalog.BranchByID(branchID); !found {
		h.RespondWithError(w, http.StatusNotFound, "Branch not found")
		return
	}

	now := time.Now()
	bySKU := make(map[string]*entities.BranchSummary)
	for _, lot := range h.ledger.BranchLots(branchID) {
		summary, ok := bySKU[lot.SKU]
		if !ok {
			item, found := h.catalog.ItemBySKU(lot.SKU)
			if !found {
				continue
			}
			summary = &entities.BranchSummary{
				SKU:          lot.SKU,
				ItemName:     item.Name,
				Category:     item.Category,
				ReorderPoint: item.ReorderPoint,
				Valuation:    decimal.Zero,
			}
			bySKU[lot.SKU] = summary
		}

		if lot.Retired(now) {
			continue
		}

		summary.Stock += lot.QuantityRemaining
		summary.Valuation = summary.Valuation.Add(
			lot.UnitCost.Mul(decimal.NewFromInt(int64(lot.QuantityRemaining))))
		if summary.NextExpiry == nil || lot.ExpiryDate.Before(*summary.NextExpiry) {
			expiry := lot.ExpiryDate
			summary.NextExpiry = &expiry
		}
	}

	summaries := make([]entities.BranchSummary, 0, len(bySKU))
	for _, summary := range bySKU {
		summary.LowStock = summary.Stock <= summary.ReorderPoint
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SKU < summaries[j].SKU
	})

	h.RespondWithJSON(w, http.StatusOK, summaries)
}

// HealthCheck serves the /health endpoint
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.checker.HealthCheck()

	response := map[string]interface{}{
		"status": status,
	}
	for key, value := range details {
		response[key] = value
	}

	h.RespondWithJSON(w, httpStatus, response)
}
