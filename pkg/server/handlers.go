package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/dashboard"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/kpi"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/pipeline"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/resample"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

const maxAskBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type KPIsResponse struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	KPIs kpi.Summary `json:"kpis"`
}

type TrendResponse struct {
	Metric      resample.Metric      `json:"metric"`
	Hour        int                  `json:"hour"`
	Granularity resample.Granularity `json:"granularity"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	Points      []resample.Point     `json:"points"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Artifact *pipeline.Artifact `json:"artifact,omitempty"`
	Stage    pipeline.Stage     `json:"stage,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("server: failed to write response", "error", err)
	}
}

// writeError maps request and context errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; the status is only recorded.
		status = 499
	}
	if status == http.StatusInternalServerError {
		s.log.Error("server: request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) dateRange(r *http.Request) (snapshot.DateRange, error) {
	q := r.URL.Query()
	return dashboard.ResolveRange(r.Context(), s.cfg.Provider, q.Get("from"), q.Get("to"))
}

func parseGranularity(v string) (resample.Granularity, error) {
	if v == "" {
		return dashboard.DefaultGranularity, nil
	}
	g, err := resample.ParseGranularity(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", dashboard.ErrInvalidRequest, err)
	}
	return g, nil
}

func (s *Server) kpisHandler(w http.ResponseWriter, r *http.Request) {
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summary, err := s.cfg.Provider.GetKPIs(r.Context(), rng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, KPIsResponse{
		From: rng.Start.Format(snapshot.DateLayout),
		To:   rng.End.Format(snapshot.DateLayout),
		KPIs: summary,
	})
}

func (s *Server) trendHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric, err := resample.ParseMetric(q.Get("metric"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", dashboard.ErrInvalidRequest, err))
		return
	}
	g, err := parseGranularity(q.Get("granularity"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := dashboard.NewTrendRequest(metric, g, rng)
	if v := q.Get("hour"); v != "" {
		hour, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: invalid hour %q", dashboard.ErrInvalidRequest, v))
			return
		}
		req.Hour = hour
	}

	points, err := s.cfg.Provider.GetTrend(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, TrendResponse{
		Metric:      req.Metric,
		Hour:        req.Hour,
		Granularity: req.Granularity,
		From:        rng.Start.Format(snapshot.DateLayout),
		To:          rng.End.Format(snapshot.DateLayout),
		Points:      points,
	})
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.cfg.Provider.GetDashboard(r.Context(), rng, g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) rowsHandler(w http.ResponseWriter, r *http.Request) {
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rows, err := s.cfg.Provider.GetRows(r.Context(), rng)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "hotel_metrics_"+rng.String()+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := snapshot.WriteCSV(w, rows); err != nil {
		s.log.Error("server: failed to write rows", "error", err)
	}
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Asker == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "question answering is not configured"})
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: pipeline.ErrEmptyQuestion.Error()})
		return
	}

	art, err := s.cfg.Asker.Ask(r.Context(), req.Question)
	if err == nil {
		s.writeJSON(w, http.StatusOK, AskResponse{Artifact: art})
		return
	}

	var se *pipeline.StageError
	if !errors.As(err, &se) {
		s.writeError(w, err)
		return
	}
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case se.Stage == pipeline.StageCompose:
		// SQL and rows are still worth showing.
		status = http.StatusOK
	}
	s.writeJSON(w, status, AskResponse{Artifact: art, Stage: se.Stage, Error: err.Error()})
}
