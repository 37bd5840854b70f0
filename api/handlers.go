/*
handlers.go - HTTP API handlers for the lease back office

PURPOSE:
  Exposes the lease engine via REST. Handlers parse and validate input,
  delegate to the lease.Service entry points, and serialize responses.
  Business rules live in the lease package; nothing here mutates a
  schedule directly.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed dates, non-positive amounts
  - 404: Resource not found
  - 409: Contract number conflict (retryable), invalid stage transition,
         partial bulk failure
  - 500: Internal errors

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
  - lease/service.go: the entry points these handlers call
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/pricing"
	"github.com/warp/lease-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *lease.Service
}

// NewHandler creates a new handler over the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Service: lease.NewService(store),
	}
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns all contracts, enriched against one today snapshot.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Service.ListContracts(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list contracts", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTOs(contracts))
}

// GetContract returns a single enriched contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// CreateContract creates a new contract. The contract number is allocated
// atomically by the store; a lost allocation race returns 409 and can be
// retried.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req SaveContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := contractFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract", err)
		return
	}

	created, err := h.Service.CreateContract(r.Context(), c)
	if err != nil {
		writeDomainError(w, "Failed to create contract", err)
		return
	}
	h.respondEnriched(w, r, http.StatusCreated, created.ID)
}

// UpdateContract overwrites an editable contract row. The expiry date is
// recomputed from execution date + duration; clients cannot set it.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}

	var req SaveContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := contractFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract", err)
		return
	}
	c.ID = existing.ID
	c.ContractNumber = existing.ContractNumber
	c.Deductions = existing.Deductions
	c.Status = existing.Status
	c.SettlementStatus = existing.SettlementStatus
	c.IsLesseeContractSigned = existing.IsLesseeContractSigned
	c.SettlementRequestDate = existing.SettlementRequestDate
	c.SettlementDate = existing.SettlementDate
	c.SettlementDocumentURL = existing.SettlementDocumentURL

	updated, err := h.Service.UpdateContract(r.Context(), c)
	if err != nil {
		writeDomainError(w, "Failed to update contract", err)
		return
	}
	h.respondEnriched(w, r, http.StatusOK, updated.ID)
}

// DeleteContract removes a contract. Explicit user action only.
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteContract(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete contract", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPayment allocates a payment oldest-unpaid-first and returns the
// updated schedule plus any unallocated remainder.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Payment amount must be positive", lease.ErrNonPositiveAmount)
		return
	}

	schedule, remainder, err := h.Service.AddPayment(r.Context(), chi.URLParam(r, "id"), lease.NewMoneyFromFloat(req.Amount))
	if err != nil {
		writeDomainError(w, "Failed to apply payment", err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentResponse{
		Deductions: toDeductionDTOs(schedule),
		Remainder:  remainder.Float64(),
	})
}

// SettleDeduction forces one schedule record to fully paid.
func (h *Handler) SettleDeduction(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Service.SettleDeduction(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "deductionID"))
	if err != nil {
		writeDomainError(w, "Failed to settle deduction", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeductionDTOs(schedule))
}

// CancelDeduction reverts one schedule record to unpaid state.
func (h *Handler) CancelDeduction(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Service.CancelDeduction(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "deductionID"))
	if err != nil {
		writeDomainError(w, "Failed to cancel deduction", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeductionDTOs(schedule))
}

// UpdatePrerequisites edits the settlement prerequisites and re-derives
// both statuses.
func (h *Handler) UpdatePrerequisites(w http.ResponseWriter, r *http.Request) {
	var req PrerequisitesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := lease.PrerequisiteUpdate{
		IsLesseeContractSigned: req.IsLesseeContractSigned,
		SettlementDocumentURL:  req.SettlementDocumentURL,
	}
	if req.ShippingStatus != nil {
		status := lease.ShippingStatus(*req.ShippingStatus)
		upd.ShippingStatus = &status
	}

	c, err := h.Service.UpdatePrerequisites(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeDomainError(w, "Failed to update prerequisites", err)
		return
	}
	h.respondEnriched(w, r, http.StatusOK, c.ID)
}

// RequestSettlement moves one contract ready -> requested.
func (h *Handler) RequestSettlement(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.RequestSettlement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to request settlement", err)
		return
	}
	h.respondEnriched(w, r, http.StatusOK, c.ID)
}

// CompleteSettlement moves one contract requested -> completed.
func (h *Handler) CompleteSettlement(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.CompleteSettlement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to complete settlement", err)
		return
	}
	h.respondEnriched(w, r, http.StatusOK, c.ID)
}

// BulkRequestSettlement attempts the ready -> requested transition for
// every listed contract. Partial failure returns 409 with per-contract
// details; the caller must re-fetch to see the mixed result.
func (h *Handler) BulkRequestSettlement(w http.ResponseWriter, r *http.Request) {
	h.bulkSettlement(w, r, h.Service.BulkRequestSettlement)
}

// BulkCompleteSettlement attempts requested -> completed for every listed
// contract.
func (h *Handler) BulkCompleteSettlement(w http.ResponseWriter, r *http.Request) {
	h.bulkSettlement(w, r, h.Service.BulkCompleteSettlement)
}

func (h *Handler) bulkSettlement(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ids []string) error) {
	var req BulkSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.ContractIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No contract IDs given", nil)
		return
	}

	if err := op(r.Context(), req.ContractIDs); err != nil {
		writeDomainError(w, "Bulk settlement transition failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PARTNER HANDLERS
// =============================================================================

// ListPartners returns all partners with their price lists.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.Store.ListPartners(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list partners", err)
		return
	}
	dtos := make([]PartnerDTO, len(partners))
	for i, p := range partners {
		dtos[i] = toPartnerDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPartner returns a single partner.
func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPartner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get partner", err)
		return
	}
	writeJSON(w, http.StatusOK, toPartnerDTO(*p))
}

// CreatePartner creates a partner or pricing template.
func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	var req SavePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := partnerFromRequest(uuid.NewString(), req)
	if err := h.Store.SavePartner(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to create partner", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPartnerDTO(p))
}

// UpdatePartner overwrites a partner.
func (h *Handler) UpdatePartner(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetPartner(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get partner", err)
		return
	}

	var req SavePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := partnerFromRequest(id, req)
	if err := h.Store.SavePartner(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to update partner", err)
		return
	}
	writeJSON(w, http.StatusOK, toPartnerDTO(p))
}

// DeletePartner removes a partner.
func (h *Handler) DeletePartner(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePartner(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete partner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FindTier looks up a partner's price tier by model, storage and duration.
func (h *Handler) FindTier(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPartner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get partner", err)
		return
	}

	q := r.URL.Query()
	duration, err := parsePositiveInt(q.Get("duration_days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid duration_days", err)
		return
	}

	tier, ok := p.FindTier(q.Get("model"), q.Get("storage"), duration)
	if !ok {
		writeError(w, http.StatusNotFound, "No matching price tier", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPriceTierDTO(tier))
}

// =============================================================================
// CALENDAR EVENT HANDLERS
// =============================================================================

// ListEvents returns calendar events, optionally bounded by ?from= and ?to=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var from, to *lease.Date
	if f, t := r.URL.Query().Get("from"), r.URL.Query().Get("to"); f != "" && t != "" {
		fd, err := lease.ParseDate(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		td, err := lease.ParseDate(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		from, to = &fd, &td
	}

	events, err := h.Store.ListEvents(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "Failed to list events", err)
		return
	}
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEvent creates a calendar event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.saveEvent(w, r, uuid.NewString(), http.StatusCreated)
}

// UpdateEvent overwrites a calendar event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	h.saveEvent(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveEvent(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req SaveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := lease.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event date", err)
		return
	}

	e := sqlite.Event{ID: id, Title: req.Title, Date: date, User: req.User, Color: req.Color}
	if err := h.Store.SaveEvent(r.Context(), e); err != nil {
		writeDomainError(w, "Failed to save event", err)
		return
	}
	writeJSON(w, status, toEventDTO(e))
}

// DeleteEvent removes a calendar event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTLEMENT ROUND HANDLERS
// =============================================================================

// ListSettlementRounds returns the rounds with live daily totals summed
// from the enriched contracts assigned to each round.
func (h *Handler) ListSettlementRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.Store.ListSettlementRounds(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list settlement rounds", err)
		return
	}
	contracts, err := h.Service.ListContracts(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list contracts", err)
		return
	}

	counts := make(map[int]int)
	totals := make(map[int]lease.Money)
	for _, c := range contracts {
		if c.SettlementRound == 0 {
			continue
		}
		counts[c.SettlementRound]++
		total, ok := totals[c.SettlementRound]
		if !ok {
			total = lease.Zero()
		}
		totals[c.SettlementRound] = total.Add(c.DailyDeduction)
	}

	dtos := make([]SettlementRoundDTO, len(rounds))
	for i, round := range rounds {
		total, ok := totals[round.RoundNumber]
		if !ok {
			total = lease.Zero()
		}
		dtos[i] = SettlementRoundDTO{
			ID:                  round.ID,
			RoundNumber:         round.RoundNumber,
			StartDate:           round.StartDate.String(),
			EndDate:             round.EndDate.String(),
			ContractCount:       counts[round.RoundNumber],
			TotalDailyDeduction: total.Float64(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSettlementRound creates a settlement round.
func (h *Handler) CreateSettlementRound(w http.ResponseWriter, r *http.Request) {
	var req SaveSettlementRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := lease.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := lease.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	round := sqlite.SettlementRound{
		ID:          uuid.NewString(),
		RoundNumber: req.RoundNumber,
		StartDate:   start,
		EndDate:     end,
	}
	if err := h.Store.SaveSettlementRound(r.Context(), round); err != nil {
		writeDomainError(w, "Failed to create settlement round", err)
		return
	}
	writeJSON(w, http.StatusCreated, SettlementRoundDTO{
		ID:          round.ID,
		RoundNumber: round.RoundNumber,
		StartDate:   round.StartDate.String(),
		EndDate:     round.EndDate.String(),
	})
}

// DeleteSettlementRound removes a settlement round.
func (h *Handler) DeleteSettlementRound(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSettlementRound(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete settlement round", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REQUEST PARSING HELPERS
// =============================================================================

func contractFromRequest(req SaveContractRequest) (lease.Contract, error) {
	contractDate, err := lease.ParseDate(req.ContractDate)
	if err != nil {
		return lease.Contract{}, err
	}

	c := lease.Contract{
		PartnerID:      req.PartnerID,
		DeviceName:     req.DeviceName,
		Color:          req.Color,
		ContractDate:   contractDate,
		DurationDays:   req.DurationDays,
		TotalAmount:    lease.NewMoneyFromFloat(req.TotalAmount),
		DailyDeduction: lease.NewMoneyFromFloat(req.DailyDeduction),
		UnitsRequired:  req.UnitsRequired,
		UnitsSecured:   req.UnitsSecured,

		ShippingStatus:  lease.ShippingStatus(req.ShippingStatus),
		ShippingCompany: req.ShippingCompany,
		TrackingNumber:  req.TrackingNumber,

		ProcurementStatus: lease.ProcurementStatus(req.ProcurementStatus),
		ProcurementSource: req.ProcurementSource,
		ProcurementCost:   lease.NewMoneyFromFloat(req.ProcurementCost),

		LesseeName:           req.LesseeName,
		LesseeContact:        req.LesseeContact,
		LesseeBusinessNumber: req.LesseeBusinessNumber,
		DistributorName:      req.DistributorName,
		DistributorContact:   req.DistributorContact,
		ManagerName:          req.ManagerName,

		SettlementRound: req.SettlementRound,
		ContractFileURL: req.ContractFileURL,
	}

	if req.ExecutionDate != nil && *req.ExecutionDate != "" {
		d, err := lease.ParseDate(*req.ExecutionDate)
		if err != nil {
			return lease.Contract{}, err
		}
		c.ExecutionDate = &d
	}
	if req.ShippingDate != nil && *req.ShippingDate != "" {
		d, err := lease.ParseDate(*req.ShippingDate)
		if err != nil {
			return lease.Contract{}, err
		}
		c.ShippingDate = &d
	}

	return c, nil
}

func partnerFromRequest(id string, req SavePartnerRequest) pricing.Partner {
	tiers := make([]pricing.PriceTier, len(req.PriceList))
	for i, t := range req.PriceList {
		tierID := t.ID
		if tierID == "" {
			tierID = uuid.NewString()
		}
		tiers[i] = pricing.PriceTier{
			ID:             tierID,
			Model:          t.Model,
			Storage:        t.Storage,
			DurationDays:   t.DurationDays,
			TotalAmount:    lease.NewMoneyFromFloat(t.TotalAmount),
			DailyDeduction: lease.NewMoneyFromFloat(t.DailyDeduction),
		}
	}
	return pricing.Partner{
		ID:             id,
		Name:           req.Name,
		BusinessNumber: req.BusinessNumber,
		Address:        req.Address,
		PriceList:      tiers,
		IsTemplate:     req.IsTemplate,
	}
}

// respondEnriched re-fetches a contract through the service so the
// response carries the enriched schedule and derived fields.
func (h *Handler) respondEnriched(w http.ResponseWriter, r *http.Request, status int, id string) {
	c, err := h.Service.GetContract(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load contract", err)
		return
	}
	writeJSON(w, status, toContractDTO(c))
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps lease errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var bulkErr *lease.BulkError
	switch {
	case lease.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case lease.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case lease.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.As(err, &bulkErr):
		details := make(map[string]string, len(bulkErr.Failures))
		for id, ferr := range bulkErr.Failures {
			details[id] = ferr.Error()
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   message,
			Code:    "partial_failure",
			Details: details,
		})
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
