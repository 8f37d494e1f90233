package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/21mScot/sitecast/internal/analysis"
	"github.com/21mScot/sitecast/internal/catalogue"
	"github.com/21mScot/sitecast/internal/network"
	"github.com/21mScot/sitecast/internal/scenario"
	"github.com/21mScot/sitecast/internal/selector"
	"github.com/21mScot/sitecast/internal/site"
	"github.com/21mScot/sitecast/internal/storage"
)

// AnalyzeRequest is the POST /api/analyze body. Omitted fields fall back to
// the configured site and finance defaults.
type AnalyzeRequest struct {
	Site           *site.Inputs `json:"site,omitempty"`
	HorizonYears   int          `json:"horizonYears,omitempty"`
	DiscountRate   *float64     `json:"discountRate,omitempty"`
	Variant        string       `json:"variant,omitempty"`
	MinerName      string       `json:"minerName,omitempty"`
	IncludeMonthly bool         `json:"includeMonthly,omitempty"`
	Save           bool         `json:"save"`
}

// AnalyzeResponse wraps the engine result with the persisted run ID, when
// the caller asked to save.
type AnalyzeResponse struct {
	RunID  int64            `json:"runId,omitempty"`
	Result *analysis.Result `json:"result"`
}

// handleGetNetwork returns the current network snapshot
// GET /api/network
func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.live.Snapshot())
}

// handleRefreshNetwork forces a live fetch and broadcasts the fresh snapshot
// POST /api/network/refresh
func (s *Server) handleRefreshNetwork(w http.ResponseWriter, r *http.Request) {
	snap, err := s.live.Refresh()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.hub.Broadcast(Message{Type: "network", Data: snap})
	s.jsonResponse(w, snap)
}

// catalogueForVariant resolves a catalogue from storage, falling back to the
// built-in set for the variant
func (s *Server) catalogueForVariant(variant catalogue.Variant) ([]catalogue.Miner, error) {
	miners, err := s.storage.GetCatalogue(variant)
	if err != nil {
		return nil, err
	}
	if len(miners) == 0 {
		return catalogue.Builtin(variant)
	}
	return miners, nil
}

func (s *Server) variantParam(r *http.Request) catalogue.Variant {
	if v := r.URL.Query().Get("variant"); v != "" {
		return catalogue.Variant(v)
	}
	return s.cfg.CatalogueVariant
}

// handleGetMiners returns the miner catalogue for a variant
// GET /api/miners?variant=prod
func (s *Server) handleGetMiners(w http.ResponseWriter, r *http.Request) {
	miners, err := s.catalogueForVariant(s.variantParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, miners)
}

// handleReplaceMiners replaces the stored catalogue for a variant
// PUT /api/miners?variant=prod
func (s *Server) handleReplaceMiners(w http.ResponseWriter, r *http.Request) {
	var miners []catalogue.Miner
	if err := json.NewDecoder(r.Body).Decode(&miners); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	variant := s.variantParam(r)
	if err := s.storage.ReplaceCatalogue(variant, miners); err != nil {
		var verr *catalogue.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, miners)
}

// handleMinerAnalytics returns per-miner viability, breakeven power price,
// and payback at the requested power price
// GET /api/miners/analytics?variant=prod&powerPrice=0.07
func (s *Server) handleMinerAnalytics(w http.ResponseWriter, r *http.Request) {
	powerPrice := s.cfg.Site.PowerPricePerKWh
	if p := r.URL.Query().Get("powerPrice"); p != "" {
		parsed, err := strconv.ParseFloat(p, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid powerPrice", http.StatusBadRequest)
			return
		}
		powerPrice = parsed
	}

	miners, err := s.catalogueForVariant(s.variantParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rate, err := network.RevenuePerTHPerDay(s.live.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.jsonResponse(w, selector.Evaluate(miners, rate, powerPrice))
}

// handleAnalyze runs the full engine: miner selection, fleet plan, scenario
// paths, cashflows, and investment metrics
// POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	variant := s.cfg.CatalogueVariant
	if body.Variant != "" {
		variant = catalogue.Variant(body.Variant)
	}
	miners, err := s.catalogueForVariant(variant)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := analysis.Request{
		Snapshot: s.live.Snapshot(),
		Site: site.Inputs{
			SitePowerKW:        s.cfg.Site.SitePowerKW,
			LoadFactor:         s.cfg.Site.LoadFactor,
			PowerPricePerKWh:   s.cfg.Site.PowerPricePerKWh,
			UptimePct:          s.cfg.Site.UptimePct,
			CoolingOverheadPct: s.cfg.Site.CoolingOverheadPct,
		},
		HorizonYears:   s.cfg.Finance.HorizonYears,
		DiscountRate:   s.cfg.Finance.DiscountRate,
		Catalogue:      miners,
		MinerName:      body.MinerName,
		IncludeMonthly: body.IncludeMonthly,
	}
	if body.Site != nil {
		req.Site = *body.Site
	}
	if body.HorizonYears > 0 {
		req.HorizonYears = body.HorizonYears
	}
	if body.DiscountRate != nil {
		req.DiscountRate = *body.DiscountRate
	}

	result, err := s.engine.Run(req)
	if err != nil {
		status := http.StatusBadRequest
		var noViable *selector.NoViableMinerError
		if errors.As(err, &noViable) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := AnalyzeResponse{Result: result}
	if body.Save {
		run, err := s.saveRun(variant, req, result)
		if err != nil {
			log.Printf("Failed to save run: %v", err)
		} else {
			resp.RunID = run.ID
		}
	}

	s.hub.Broadcast(Message{Type: "analysis", Data: resp})
	s.jsonResponse(w, resp)
}

// saveRun persists an analysis result with its base-case headline metrics
func (s *Server) saveRun(variant catalogue.Variant, req analysis.Request, result *analysis.Result) (*storage.Run, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	run := &storage.Run{
		CreatedAt: time.Now().UTC(),
		Variant:   string(variant),
		MinerName: result.Miner.Name,
		NMiners:   result.Plan.NMiners,
		CapexUSD:  result.Plan.CapexTotal,

		RequestJSON: string(reqJSON),
		ResultJSON:  string(resJSON),
	}
	for _, sc := range result.Scenarios {
		if sc.Kind == scenario.Base {
			run.NPVBase = sc.Metrics.NPV
			run.IRRBase = sc.Metrics.IRR
			run.SimplePaybackBase = sc.Metrics.SimplePaybackYears
		}
	}

	if err := s.storage.SaveRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// handleGetRuns returns recent saved runs, newest first
// GET /api/runs?limit=50
func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := s.storage.GetRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, runs)
}

// handleGetRun returns one saved run with its full payload
// GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := s.storage.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, run)
}

// handleDeleteRun removes a saved run
// DELETE /api/runs/{id}
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteRun(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSettings returns the current configuration
// GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.cfg)
}

// handleSaveSettings saves the configuration
// POST /api/settings
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, s.cfg); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// Save to file
	if err := s.cfg.Save(s.configPath); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, s.cfg)
}

// handleHealth is a liveness probe
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
