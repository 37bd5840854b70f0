/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract. Amounts are serialized as plain
  numbers; dates as YYYY-MM-DD strings; absent dates as null.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/pricing"
	"github.com/warp/lease-engine/store/sqlite"
)

// =============================================================================
// CONTRACTS
// =============================================================================

// DeductionDTO is one day of a contract's deduction schedule.
type DeductionDTO struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	PaidAmount float64 `json:"paid_amount"`
	Status     string  `json:"status"`
}

// ContractDTO is the enriched contract returned to clients. The balance
// and schedule are computed server-side on every fetch; they are display
// caches, not authoritative state.
type ContractDTO struct {
	ID             string  `json:"id"`
	ContractNumber int64   `json:"contract_number"`
	PartnerID      string  `json:"partner_id,omitempty"`
	DeviceName     string  `json:"device_name"`
	Color          string  `json:"color,omitempty"`

	ContractDate  string  `json:"contract_date"`
	ExecutionDate *string `json:"execution_date"`
	ExpiryDate    *string `json:"expiry_date"`
	DurationDays  int     `json:"duration_days"`

	TotalAmount    float64 `json:"total_amount"`
	DailyDeduction float64 `json:"daily_deduction"`
	UnitsRequired  int     `json:"units_required"`
	UnitsSecured   int     `json:"units_secured"`

	Deductions    []DeductionDTO `json:"daily_deductions"`
	UnpaidBalance float64        `json:"unpaid_balance"`
	TotalPaid     float64        `json:"total_paid"`

	Status string `json:"status"`

	ShippingStatus  string  `json:"shipping_status"`
	ShippingDate    *string `json:"shipping_date,omitempty"`
	ShippingCompany string  `json:"shipping_company,omitempty"`
	TrackingNumber  string  `json:"tracking_number,omitempty"`

	ProcurementStatus string  `json:"procurement_status"`
	ProcurementSource string  `json:"procurement_source,omitempty"`
	ProcurementCost   float64 `json:"procurement_cost,omitempty"`

	LesseeName           string `json:"lessee_name,omitempty"`
	LesseeContact        string `json:"lessee_contact,omitempty"`
	LesseeBusinessNumber string `json:"lessee_business_number,omitempty"`
	DistributorName      string `json:"distributor_name,omitempty"`
	DistributorContact   string `json:"distributor_contact,omitempty"`
	ManagerName          string `json:"manager_name,omitempty"`

	SettlementRound        int     `json:"settlement_round,omitempty"`
	SettlementStatus       string  `json:"settlement_status"`
	IsLesseeContractSigned bool    `json:"is_lessee_contract_signed"`
	SettlementRequestDate  *string `json:"settlement_request_date,omitempty"`
	SettlementDate         *string `json:"settlement_date,omitempty"`
	SettlementDocumentURL  string  `json:"settlement_document_url,omitempty"`

	ContractFileURL string `json:"contract_file_url,omitempty"`
}

// SaveContractRequest creates or updates a contract. The expiry date is
// not accepted: it is always recomputed from execution date + duration.
type SaveContractRequest struct {
	PartnerID      string  `json:"partner_id"`
	DeviceName     string  `json:"device_name"`
	Color          string  `json:"color"`
	ContractDate   string  `json:"contract_date"`
	ExecutionDate  *string `json:"execution_date"`
	DurationDays   int     `json:"duration_days"`
	TotalAmount    float64 `json:"total_amount"`
	DailyDeduction float64 `json:"daily_deduction"`
	UnitsRequired  int     `json:"units_required"`
	UnitsSecured   int     `json:"units_secured"`

	ShippingStatus  string  `json:"shipping_status,omitempty"`
	ShippingDate    *string `json:"shipping_date,omitempty"`
	ShippingCompany string  `json:"shipping_company,omitempty"`
	TrackingNumber  string  `json:"tracking_number,omitempty"`

	ProcurementStatus string  `json:"procurement_status,omitempty"`
	ProcurementSource string  `json:"procurement_source,omitempty"`
	ProcurementCost   float64 `json:"procurement_cost,omitempty"`

	LesseeName           string `json:"lessee_name,omitempty"`
	LesseeContact        string `json:"lessee_contact,omitempty"`
	LesseeBusinessNumber string `json:"lessee_business_number,omitempty"`
	DistributorName      string `json:"distributor_name,omitempty"`
	DistributorContact   string `json:"distributor_contact,omitempty"`
	ManagerName          string `json:"manager_name,omitempty"`

	SettlementRound int    `json:"settlement_round,omitempty"`
	ContractFileURL string `json:"contract_file_url,omitempty"`
}

// PaymentRequest applies a payment to a contract's schedule.
type PaymentRequest struct {
	Amount float64 `json:"amount"`
}

// PaymentResponse returns the updated schedule plus any unallocated
// remainder, so the caller decides the overpayment policy.
type PaymentResponse struct {
	Deductions []DeductionDTO `json:"daily_deductions"`
	Remainder  float64        `json:"remainder"`
}

// PrerequisitesRequest edits the settlement prerequisites. Nil fields are
// left untouched.
type PrerequisitesRequest struct {
	ShippingStatus         *string `json:"shipping_status"`
	IsLesseeContractSigned *bool   `json:"is_lessee_contract_signed"`
	SettlementDocumentURL  *string `json:"settlement_document_url"`
}

// BulkSettlementRequest names the contracts for a bulk stage transition.
type BulkSettlementRequest struct {
	ContractIDs []string `json:"contract_ids"`
}

// =============================================================================
// PARTNERS
// =============================================================================

type PriceTierDTO struct {
	ID             string  `json:"id"`
	Model          string  `json:"model"`
	Storage        string  `json:"storage"`
	DurationDays   int     `json:"duration_days"`
	TotalAmount    float64 `json:"total_amount"`
	DailyDeduction float64 `json:"daily_deduction"`
}

type PartnerDTO struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	BusinessNumber string         `json:"business_number,omitempty"`
	Address        string         `json:"address,omitempty"`
	PriceList      []PriceTierDTO `json:"price_list"`
	IsTemplate     bool           `json:"is_template"`
}

type SavePartnerRequest struct {
	Name           string         `json:"name"`
	BusinessNumber string         `json:"business_number"`
	Address        string         `json:"address"`
	PriceList      []PriceTierDTO `json:"price_list"`
	IsTemplate     bool           `json:"is_template"`
}

// =============================================================================
// EVENTS & SETTLEMENT ROUNDS
// =============================================================================

type EventDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	User  string `json:"user"`
	Color string `json:"color"`
}

type SaveEventRequest struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	User  string `json:"user"`
	Color string `json:"color"`
}

// SettlementRoundDTO includes the round's live daily total, summed from
// the enriched contracts assigned to it.
type SettlementRoundDTO struct {
	ID                  string  `json:"id"`
	RoundNumber         int     `json:"round_number"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	ContractCount       int     `json:"contract_count"`
	TotalDailyDeduction float64 `json:"total_daily_deduction"`
}

type SaveSettlementRoundRequest struct {
	RoundNumber int    `json:"round_number"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toDeductionDTO(d lease.DeductionLog) DeductionDTO {
	return DeductionDTO{
		ID:         d.ID,
		Date:       d.Date.String(),
		Amount:     d.Amount.Float64(),
		PaidAmount: d.PaidAmount.Float64(),
		Status:     string(d.Status),
	}
}

func toDeductionDTOs(schedule []lease.DeductionLog) []DeductionDTO {
	out := make([]DeductionDTO, len(schedule))
	for i, d := range schedule {
		out[i] = toDeductionDTO(d)
	}
	return out
}

func optDate(d *lease.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toContractDTO(c lease.Contract) ContractDTO {
	return ContractDTO{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		PartnerID:      c.PartnerID,
		DeviceName:     c.DeviceName,
		Color:          c.Color,

		ContractDate:  c.ContractDate.String(),
		ExecutionDate: optDate(c.ExecutionDate),
		ExpiryDate:    optDate(c.ExpiryDate),
		DurationDays:  c.DurationDays,

		TotalAmount:    c.TotalAmount.Float64(),
		DailyDeduction: c.DailyDeduction.Float64(),
		UnitsRequired:  c.UnitsRequired,
		UnitsSecured:   c.UnitsSecured,

		Deductions:    toDeductionDTOs(c.Deductions),
		UnpaidBalance: c.UnpaidBalance.Float64(),
		TotalPaid:     c.TotalPaid.Float64(),

		Status: string(c.Status),

		ShippingStatus:  string(c.ShippingStatus),
		ShippingDate:    optDate(c.ShippingDate),
		ShippingCompany: c.ShippingCompany,
		TrackingNumber:  c.TrackingNumber,

		ProcurementStatus: string(c.ProcurementStatus),
		ProcurementSource: c.ProcurementSource,
		ProcurementCost:   c.ProcurementCost.Float64(),

		LesseeName:           c.LesseeName,
		LesseeContact:        c.LesseeContact,
		LesseeBusinessNumber: c.LesseeBusinessNumber,
		DistributorName:      c.DistributorName,
		DistributorContact:   c.DistributorContact,
		ManagerName:          c.ManagerName,

		SettlementRound:        c.SettlementRound,
		SettlementStatus:       string(c.SettlementStatus),
		IsLesseeContractSigned: c.IsLesseeContractSigned,
		SettlementRequestDate:  optDate(c.SettlementRequestDate),
		SettlementDate:         optDate(c.SettlementDate),
		SettlementDocumentURL:  c.SettlementDocumentURL,

		ContractFileURL: c.ContractFileURL,
	}
}

func toContractDTOs(contracts []lease.Contract) []ContractDTO {
	out := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		out[i] = toContractDTO(c)
	}
	return out
}

func toPriceTierDTO(t pricing.PriceTier) PriceTierDTO {
	return PriceTierDTO{
		ID:             t.ID,
		Model:          t.Model,
		Storage:        t.Storage,
		DurationDays:   t.DurationDays,
		TotalAmount:    t.TotalAmount.Float64(),
		DailyDeduction: t.DailyDeduction.Float64(),
	}
}

func toPartnerDTO(p pricing.Partner) PartnerDTO {
	tiers := make([]PriceTierDTO, len(p.PriceList))
	for i, t := range p.PriceList {
		tiers[i] = toPriceTierDTO(t)
	}
	return PartnerDTO{
		ID:             p.ID,
		Name:           p.Name,
		BusinessNumber: p.BusinessNumber,
		Address:        p.Address,
		PriceList:      tiers,
		IsTemplate:     p.IsTemplate,
	}
}

func toEventDTO(e sqlite.Event) EventDTO {
	return EventDTO{
		ID:    e.ID,
		Title: e.Title,
		Date:  e.Date.String(),
		User:  e.User,
		Color: e.Color,
	}
}
