package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/report"
	"quantval/pkg/core/risk"
	"quantval/pkg/core/store"
)

// runStore is the slice of store.RunRepo the handlers use.
type runStore interface {
	Save(ctx context.Context, kind store.RunKind, label string, params dcf.ValuationParameters, result any) (uuid.UUID, error)
	Load(ctx context.Context, id uuid.UUID) (*store.ValuationRun, error)
}

var runRepo runStore

// InitHandler wires the optional run repository. A nil repo disables
// persistence; analyses still run and respond normally.
func InitHandler(repo *store.RunRepo) {
	if repo == nil {
		runRepo = nil
		return
	}
	runRepo = repo
}

type DCFRequest struct {
	Label      string                  `json:"label"`
	Parameters dcf.ValuationParameters `json:"parameters"`
	Format     string                  `json:"format"` // json (default) or html
}

type DCFResponse struct {
	RunID     string         `json:"run_id,omitempty"`
	Valuation *dcf.Valuation `json:"valuation"`
}

type SensitivityRequest struct {
	Label      string                  `json:"label"`
	Parameters dcf.ValuationParameters `json:"parameters"`
	RowParam   string                  `json:"row_param"`
	RowValues  []float64               `json:"row_values"`
	ColParam   string                  `json:"col_param"`
	ColValues  []float64               `json:"col_values"`
	Format     string                  `json:"format"`
}

type SensitivityResponse struct {
	RunID string                `json:"run_id,omitempty"`
	Grid  *risk.SensitivityGrid `json:"grid"`
}

type ScenariosRequest struct {
	Label      string                  `json:"label"`
	Parameters dcf.ValuationParameters `json:"parameters"`
	Scenarios  []risk.Scenario         `json:"scenarios"`
	Format     string                  `json:"format"`
}

type ScenariosResponse struct {
	RunID    string                 `json:"run_id,omitempty"`
	Analysis *risk.ScenarioAnalysis `json:"analysis"`
}

type MonteCarloRequest struct {
	Label         string                       `json:"label"`
	Parameters    dcf.ValuationParameters      `json:"parameters"`
	Distributions map[string]risk.Distribution `json:"distributions"`
	Correlations  []CorrelationPair            `json:"correlations"`
	Iterations    int                          `json:"iterations"`
	Seed          int64                        `json:"seed"`
	Format        string                       `json:"format"`
}

type CorrelationPair struct {
	A   string  `json:"a"`
	B   string  `json:"b"`
	Rho float64 `json:"rho"`
}

type MonteCarloResponse struct {
	RunID  string                 `json:"run_id,omitempty"`
	Result *risk.SimulationResult `json:"result"`
}

// cors applies the shared CORS headers and answers preflight requests.
// Returns true if the request was fully handled.
func cors(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func HandleDCF(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	var req DCFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[VALUATION] DCF request: %s\n", req.Label)

	v, err := dcf.Evaluate(req.Parameters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	runID := persistRun(r, store.RunDCF, req.Label, req.Parameters, v)
	if req.Format == "html" {
		respondHTML(w, report.RenderValuation(v))
		return
	}
	respondJSON(w, DCFResponse{RunID: runID, Valuation: v})
}

func HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[VALUATION] Sensitivity request: %s x %s (%dx%d)\n",
		req.RowParam, req.ColParam, len(req.RowValues), len(req.ColValues))

	grid, err := risk.Sensitivity(req.Parameters, req.RowParam, req.RowValues, req.ColParam, req.ColValues)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	runID := persistRun(r, store.RunSensitivity, req.Label, req.Parameters, grid)
	if req.Format == "html" {
		respondHTML(w, report.RenderSensitivity(grid))
		return
	}
	respondJSON(w, SensitivityResponse{RunID: runID, Grid: grid})
}

func HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	var req ScenariosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[VALUATION] Scenarios request: %s (%d scenarios)\n", req.Label, len(req.Scenarios))

	analysis, err := risk.EvaluateScenarios(req.Parameters, req.Scenarios)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	runID := persistRun(r, store.RunScenarios, req.Label, req.Parameters, analysis)
	if req.Format == "html" {
		respondHTML(w, report.RenderScenarios(analysis))
		return
	}
	respondJSON(w, ScenariosResponse{RunID: runID, Analysis: analysis})
}

func HandleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	var req MonteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[VALUATION] MonteCarlo request: %s (%d iterations, %d varied)\n",
		req.Label, req.Iterations, len(req.Distributions))

	corr, err := buildCorrelation(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	result, err := risk.Simulate(r.Context(), req.Parameters, req.Distributions, corr, risk.SimulationOptions{
		Iterations: req.Iterations,
		Seed:       req.Seed,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	runID := persistRun(r, store.RunMonteCarlo, req.Label, req.Parameters, result)
	if req.Format == "html" {
		respondHTML(w, report.RenderSimulation(result))
		return
	}
	respondJSON(w, MonteCarloResponse{RunID: runID, Result: result})
}

// HandleRun serves a previously persisted run by id (?id=<uuid>).
func HandleRun(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if runRepo == nil {
		http.Error(w, "run persistence disabled", http.StatusNotFound)
		return
	}
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid run id: %v", err), http.StatusBadRequest)
		return
	}
	run, err := runRepo.Load(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, run)
}

func buildCorrelation(req MonteCarloRequest) (*risk.CorrelationMatrix, error) {
	if len(req.Correlations) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(req.Distributions))
	for name := range req.Distributions {
		names = append(names, name)
	}
	corr, err := risk.NewCorrelationMatrix(names)
	if err != nil {
		return nil, err
	}
	for _, p := range req.Correlations {
		if err := corr.Set(p.A, p.B, p.Rho); err != nil {
			return nil, err
		}
	}
	return corr, nil
}

// persistRun saves the run when a repository is wired. Persistence failures
// are logged and do not fail the request.
func persistRun(r *http.Request, kind store.RunKind, label string, params dcf.ValuationParameters, result any) string {
	if runRepo == nil {
		return ""
	}
	id, err := runRepo.Save(r.Context(), kind, label, params, result)
	if err != nil {
		fmt.Printf("[WARNING] Failed to persist %s run: %v\n", kind, err)
		return ""
	}
	return id.String()
}

// respondJSON marshals before writing so an encoding failure can still
// surface as a 500 instead of an empty 200.
func respondJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("[WARNING] Failed to encode response: %v\n", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func respondHTML(w http.ResponseWriter, markdown string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html, err := report.ToHTML(markdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, html)
}
