/*
handlers_test.go - HTTP-level tests for the API

Exercises the router end to end against an in-memory SQLite store:
contract creation, payment allocation, the settlement workflow, and
bulk partial failure.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAPI(t *testing.T, today string) (*chiServer, *Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	h.Service.Clock = func() lease.Date { return lease.MustDate(today) }
	return &chiServer{router: NewRouter(h)}, h
}

type chiServer struct {
	router http.Handler
}

func (s *chiServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func createContract(t *testing.T, srv *chiServer) ContractDTO {
	t.Helper()
	rec := srv.do(t, http.MethodPost, "/api/contracts", SaveContractRequest{
		DeviceName:     "Galaxy S25 Ultra",
		ContractDate:   "2025-01-10",
		DurationDays:   10,
		TotalAmount:    50000,
		DailyDeduction: 5000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ContractDTO](t, rec)
}

// =============================================================================
// CONTRACT ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateAndGetContract(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")

	created := createContract(t, srv)
	assert.Equal(t, int64(1), created.ContractNumber)
	assert.Equal(t, "active", created.Status)
	require.NotNil(t, created.ExpiryDate)
	assert.Equal(t, "2025-01-20", *created.ExpiryDate)
	assert.Len(t, created.Deductions, 10)
	assert.Equal(t, float64(50000), created.UnpaidBalance)

	rec := srv.do(t, http.MethodGet, "/api/contracts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ContractDTO](t, rec)
	assert.Equal(t, created.ID, got.ID)
}

func TestAPI_GetContract_NotFound(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")

	rec := srv.do(t, http.MethodGet, "/api/contracts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateContract_InvalidDate(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")

	rec := srv.do(t, http.MethodPost, "/api/contracts", SaveContractRequest{
		DeviceName:   "Broken",
		ContractDate: "15/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PAYMENT ENDPOINT TESTS
// =============================================================================

func TestAPI_AddPayment(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")
	c := createContract(t, srv)

	rec := srv.do(t, http.MethodPost,
		fmt.Sprintf("/api/contracts/%s/payments", c.ID),
		PaymentRequest{Amount: 60000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[PaymentResponse](t, rec)
	assert.Equal(t, float64(10000), resp.Remainder, "overpayment surfaced, not swallowed")
	for _, d := range resp.Deductions {
		assert.Equal(t, "paid", d.Status)
	}
}

func TestAPI_AddPayment_RejectsNonPositive(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")
	c := createContract(t, srv)

	rec := srv.do(t, http.MethodPost,
		fmt.Sprintf("/api/contracts/%s/payments", c.ID),
		PaymentRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_SettleDeduction(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")
	c := createContract(t, srv)
	target := c.Deductions[0].ID

	rec := srv.do(t, http.MethodPost,
		fmt.Sprintf("/api/contracts/%s/deductions/%s/settle", c.ID, target), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	schedule := decode[[]DeductionDTO](t, rec)
	assert.Equal(t, "paid", schedule[0].Status)
}

// =============================================================================
// SETTLEMENT WORKFLOW TESTS
// =============================================================================

func markReadyViaAPI(t *testing.T, srv *chiServer, id string) {
	t.Helper()
	delivered := "delivered"
	signed := true
	doc := "https://files.example/settlement.pdf"
	rec := srv.do(t, http.MethodPut, "/api/contracts/"+id+"/prerequisites",
		PrerequisitesRequest{
			ShippingStatus:         &delivered,
			IsLesseeContractSigned: &signed,
			SettlementDocumentURL:  &doc,
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAPI_SettlementWorkflow(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")
	c := createContract(t, srv)

	markReadyViaAPI(t, srv, c.ID)

	rec := srv.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/settlement/request", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "requested", decode[ContractDTO](t, rec).SettlementStatus)

	rec = srv.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/settlement/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[ContractDTO](t, rec)
	assert.Equal(t, "completed", done.SettlementStatus)
	assert.Equal(t, "settled", done.Status)
}

func TestAPI_RequestSettlement_NotReady(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")
	c := createContract(t, srv)

	rec := srv.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/settlement/request", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_BulkRequest_PartialFailure(t *testing.T) {
	// GIVEN: One ready contract, one not
	// WHEN: Bulk-requesting both
	// THEN: 409 with per-contract failure details; the ready one still moved

	srv, _ := newTestAPI(t, "2025-01-15")
	ready := createContract(t, srv)
	notReady := createContract(t, srv)
	markReadyViaAPI(t, srv, ready.ID)

	rec := srv.do(t, http.MethodPost, "/api/settlements/request",
		BulkSettlementRequest{ContractIDs: []string{ready.ID, notReady.ID}})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "partial_failure", resp.Code)

	check := srv.do(t, http.MethodGet, "/api/contracts/"+ready.ID, nil)
	assert.Equal(t, "requested", decode[ContractDTO](t, check).SettlementStatus)
}

// =============================================================================
// PARTNER ENDPOINT TESTS
// =============================================================================

func TestAPI_PartnerTierLookup(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")

	rec := srv.do(t, http.MethodPost, "/api/partners", SavePartnerRequest{
		Name: "Acme Distribution",
		PriceList: []PriceTierDTO{
			{Model: "Galaxy S25", Storage: "256GB", DurationDays: 180,
				TotalAmount: 900000, DailyDeduction: 5000},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[PartnerDTO](t, rec)

	rec = srv.do(t, http.MethodGet,
		"/api/partners/"+p.ID+"/tiers?model=Galaxy+S25&storage=256GB&duration_days=180", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tier := decode[PriceTierDTO](t, rec)
	assert.Equal(t, float64(5000), tier.DailyDeduction)

	rec = srv.do(t, http.MethodGet,
		"/api/partners/"+p.ID+"/tiers?model=Unknown&storage=256GB&duration_days=180", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SETTLEMENT ROUND ENDPOINT TESTS
// =============================================================================

func TestAPI_SettlementRounds_LiveTotals(t *testing.T) {
	srv, _ := newTestAPI(t, "2025-01-15")

	rec := srv.do(t, http.MethodPost, "/api/settlement-rounds", SaveSettlementRoundRequest{
		RoundNumber: 1,
		StartDate:   "2025-01-01",
		EndDate:     "2025-01-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Two contracts in round 1, one outside any round
	for i := 0; i < 2; i++ {
		rec = srv.do(t, http.MethodPost, "/api/contracts", SaveContractRequest{
			DeviceName:      "Galaxy S25",
			ContractDate:    "2025-01-10",
			DurationDays:    10,
			TotalAmount:     50000,
			DailyDeduction:  5000,
			SettlementRound: 1,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	createContract(t, srv)

	rec = srv.do(t, http.MethodGet, "/api/settlement-rounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rounds := decode[[]SettlementRoundDTO](t, rec)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].ContractCount)
	assert.Equal(t, float64(10000), rounds[0].TotalDailyDeduction)
}
