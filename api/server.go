// Package api - Thin, deterministic API layer
// The API is only responsible for input ingestion, engine orchestration and
// output serialization. It never performs emission logic itself.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"carbontrace/core/calc"
	"carbontrace/core/entry"
	"carbontrace/core/factors"
	"carbontrace/core/record"
	"carbontrace/internal/logging"
)

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	version string
	catalog *factors.Catalog
}

// NewServer creates an API server over a loaded factor catalog
func NewServer(version string, catalog *factors.Catalog) *Server {
	if catalog == nil {
		catalog = factors.EmptyCatalog()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		version: version,
		catalog: catalog,
	}

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /calculate", s.handleCalculate)
	s.mux.HandleFunc("GET /factors", s.handleListTables)
	s.mux.HandleFunc("GET /factors/{table}", s.handleResolve)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleCalculate handles POST /calculate
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	resp := CalculateResponse{
		Totals: make(map[string]calc.Totals),
	}

	rowsByCategory := make(map[entry.Category][]entry.Entry)
	for i := range req.Rows {
		e, err := record.ToEntry(&req.Rows[i])
		if err != nil {
			s.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		e = calc.Recompute(s.catalog, e)
		rowsByCategory[e.Category] = append(rowsByCategory[e.Category], e)

		result := RowResult{
			Category: string(e.Category),
			Complete: e.Emissions.Valid,
		}
		if e.ResolvedFactor.Valid {
			f := e.ResolvedFactor.Decimal
			result.CO2Factor = &f
		}
		if e.Emissions.Valid {
			v := e.Emissions.Decimal
			result.Emissions = &v
		}
		resp.Rows = append(resp.Rows, result)
	}

	var kgTotals []calc.Totals
	for c, rows := range rowsByCategory {
		totals := calc.Aggregate(rows)
		resp.Totals[string(c)] = totals
		if c != entry.CategoryInvestment {
			kgTotals = append(kgTotals, totals)
		}
	}
	resp.GrandTotalKg = calc.GrandTotal(kgTotals...)

	logging.Debug("calculated rows",
		zap.Int("rows", len(req.Rows)),
		zap.Duration("duration", time.Since(start)))

	s.writeJSON(w, resp, http.StatusOK)
}

// handleListTables handles GET /factors
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string][]string{"tables": factors.TableNames()}, http.StatusOK)
}

// handleResolve handles GET /factors/{table}?path=a&path=b
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("table")
	table := s.catalog.Table(name)
	if table == nil {
		s.writeError(w, "UNKNOWN_TABLE", "unknown factor table: "+name, http.StatusNotFound)
		return
	}

	path := r.URL.Query()["path"]
	res := table.Resolve(path...)

	resp := ResolveResponse{
		Table:   name,
		Path:    path,
		State:   string(res.State),
		Options: res.Options,
	}
	if len(res.Options) > 0 {
		resp.Available = table.AvailableOptions(path...)
	}
	if res.State == factors.Resolved {
		f := res.Factor.Value
		resp.Factor = &f
	}

	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "carbontrace",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	s.writeJSON(w, resp, status)
}
