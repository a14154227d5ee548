package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/risk"
	"quantval/pkg/core/store"
)

func requestParams() dcf.ValuationParameters {
	return dcf.ValuationParameters{
		BaseCashFlow:      66170,
		DiscountRate:      0.0942,
		GrowthPhase1:      0.12,
		YearsPhase1:       5,
		YearsTransition:   5,
		TerminalGrowth:    0.025,
		NetDebt:           -21000,
		SharesOutstanding: 7430,
	}
}

func post(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleDCF(t *testing.T) {
	rec := post(t, HandleDCF, DCFRequest{Label: "base", Parameters: requestParams()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp DCFResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Valuation == nil || resp.Valuation.Outcome.PerShareValue <= 0 {
		t.Errorf("implausible valuation: %+v", resp.Valuation)
	}
	if resp.RunID != "" {
		t.Error("run id must be empty without a wired repository")
	}
}

func TestHandleDCF_InvalidParameters(t *testing.T) {
	p := requestParams()
	p.TerminalGrowth = 0.12 // above the discount rate
	rec := post(t, HandleDCF, DCFRequest{Parameters: p})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleDCF_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	HandleDCF(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDCF_HTMLFormat(t *testing.T) {
	rec := post(t, HandleDCF, DCFRequest{Parameters: requestParams(), Format: "html"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<table>") {
		t.Error("html report missing tables")
	}
}

func TestHandleDCF_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	HandleDCF(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestHandleSensitivity(t *testing.T) {
	rec := post(t, HandleSensitivity, SensitivityRequest{
		Parameters: requestParams(),
		RowParam:   dcf.FieldDiscountRate,
		RowValues:  []float64{0.08, 0.10},
		ColParam:   dcf.FieldTerminalGrowth,
		ColValues:  []float64{0.02, 0.03},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp SensitivityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Grid.Values) != 2 || len(resp.Grid.Values[0]) != 2 {
		t.Errorf("unexpected grid shape: %+v", resp.Grid)
	}
}

func TestHandleSensitivity_InfeasibleCellSurvivesTransport(t *testing.T) {
	// A 2% discount-rate row against 2.5% terminal growth is infeasible;
	// the response must still be a complete JSON document with that cell
	// null-and-explained, not an empty body.
	rec := post(t, HandleSensitivity, SensitivityRequest{
		Parameters: requestParams(),
		RowParam:   dcf.FieldDiscountRate,
		RowValues:  []float64{0.08, 0.02},
		ColParam:   dcf.FieldTerminalGrowth,
		ColValues:  []float64{0.025},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty response body for a grid with an infeasible cell")
	}

	var resp SensitivityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
	if resp.Grid.CellOK(1, 0) {
		t.Error("infeasible cell must arrive marked as failed")
	}
	if !math.IsNaN(resp.Grid.Values[1][0]) {
		t.Errorf("infeasible cell must decode to NaN, got %g", resp.Grid.Values[1][0])
	}
	if resp.Grid.Errors[1][0] == nil || resp.Grid.Errors[1][0].Error() == "" {
		t.Error("infeasible cell must carry its reason")
	}
	if !resp.Grid.CellOK(0, 0) || math.IsNaN(resp.Grid.Values[0][0]) {
		t.Error("feasible cell lost in transport")
	}
}

func TestHandleSensitivity_UnknownParam(t *testing.T) {
	rec := post(t, HandleSensitivity, SensitivityRequest{
		Parameters: requestParams(),
		RowParam:   "wacc_typo",
		RowValues:  []float64{0.08},
		ColParam:   dcf.FieldTerminalGrowth,
		ColValues:  []float64{0.02},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleScenarios(t *testing.T) {
	rec := post(t, HandleScenarios, ScenariosRequest{
		Parameters: requestParams(),
		Scenarios: []risk.Scenario{
			{Name: "Bull", Probability: 0.4, Overrides: map[string]float64{dcf.FieldGrowthPhase1: 0.15}},
			{Name: "Bear", Probability: 0.6, Overrides: map[string]float64{dcf.FieldGrowthPhase1: 0.06}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ScenariosResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Analysis.Results) != 2 || resp.Analysis.ExpectedValue <= 0 {
		t.Errorf("implausible analysis: %+v", resp.Analysis)
	}
}

func TestHandleScenarios_BadProbabilities(t *testing.T) {
	rec := post(t, HandleScenarios, ScenariosRequest{
		Parameters: requestParams(),
		Scenarios: []risk.Scenario{
			{Name: "A", Probability: 0.5},
			{Name: "B", Probability: 0.4},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleMonteCarlo(t *testing.T) {
	rec := post(t, HandleMonteCarlo, MonteCarloRequest{
		Parameters: requestParams(),
		Distributions: map[string]risk.Distribution{
			dcf.FieldDiscountRate: {Kind: risk.DistNormal, Mean: 0.0942, StdDev: 0.008},
		},
		Iterations: risk.MinIterations,
		Seed:       1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp MonteCarloResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Result.Completed != risk.MinIterations {
		t.Errorf("completed %d", resp.Result.Completed)
	}
}

func TestHandleMonteCarlo_BelowFloor(t *testing.T) {
	rec := post(t, HandleMonteCarlo, MonteCarloRequest{
		Parameters: requestParams(),
		Distributions: map[string]risk.Distribution{
			dcf.FieldDiscountRate: {Kind: risk.DistNormal, Mean: 0.0942, StdDev: 0.008},
		},
		Iterations: 100,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleMonteCarlo_WithCorrelations(t *testing.T) {
	rec := post(t, HandleMonteCarlo, MonteCarloRequest{
		Parameters: requestParams(),
		Distributions: map[string]risk.Distribution{
			dcf.FieldDiscountRate: {Kind: risk.DistNormal, Mean: 0.0942, StdDev: 0.008},
			dcf.FieldGrowthPhase1: {Kind: risk.DistNormal, Mean: 0.10, StdDev: 0.03},
		},
		Correlations: []CorrelationPair{
			{A: dcf.FieldDiscountRate, B: dcf.FieldGrowthPhase1, Rho: -0.3},
		},
		Seed: 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRespondJSON_EncodeFailureIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, math.NaN()) // bare NaN has no JSON encoding
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("encode failure must be a 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Error("failed encode must not claim a JSON body")
	}
}

type fakeRunStore struct {
	kinds []store.RunKind
	id    uuid.UUID
}

func (f *fakeRunStore) Save(_ context.Context, kind store.RunKind, _ string, _ dcf.ValuationParameters, _ any) (uuid.UUID, error) {
	f.kinds = append(f.kinds, kind)
	return f.id, nil
}

func (f *fakeRunStore) Load(_ context.Context, id uuid.UUID) (*store.ValuationRun, error) {
	return nil, fmt.Errorf("no run found for id %s", id)
}

func withFakeRepo(t *testing.T) *fakeRunStore {
	t.Helper()
	fake := &fakeRunStore{id: uuid.New()}
	runRepo = fake
	t.Cleanup(func() { runRepo = nil })
	return fake
}

func TestHandleDCF_PersistsInBothFormats(t *testing.T) {
	fake := withFakeRepo(t)

	rec := post(t, HandleDCF, DCFRequest{Label: "json", Parameters: requestParams()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp DCFResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RunID != fake.id.String() {
		t.Errorf("json response must carry the run id, got %q", resp.RunID)
	}

	rec = post(t, HandleDCF, DCFRequest{Label: "html", Parameters: requestParams(), Format: "html"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	if len(fake.kinds) != 2 {
		t.Fatalf("expected both formats persisted, saved %d run(s)", len(fake.kinds))
	}
	for _, k := range fake.kinds {
		if k != store.RunDCF {
			t.Errorf("unexpected run kind %q", k)
		}
	}
}

func TestHandleRun_PersistenceDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?id=whatever", nil)
	rec := httptest.NewRecorder()
	HandleRun(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a repository, got %d", rec.Code)
	}
}
