package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/internal/external/polygon"
	"github.com/DevMandalia/direction-sky-ingest/internal/pipeline"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

// Supported dispatch actions.
const (
	ActionHealthCheck     = "health-check"
	ActionFetchAndStore   = "fetch-and-store"
	ActionFetchOnly       = "fetch-only"
	ActionExpiryDates     = "get-expiry-dates"
	ActionOptionsData     = "get-options-data"
	ActionUnderlyingPrice = "get-underlying-price"
)

// CycleRunner is the pipeline surface the handler drives.
type CycleRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	OptionsData(ctx context.Context, symbol, expiry string) (*pipeline.ChainData, error)
	ExpiryDates(ctx context.Context, symbol string) ([]string, error)
	UnderlyingPrice(ctx context.Context, symbol string) (*polygon.UnderlyingPrice, error)
	MarketStatus(now time.Time) (string, *time.Time)
}

// OptionsHandler handles the action-dispatch trigger endpoint
type OptionsHandler struct {
	runner        CycleRunner
	logger        *logger.Logger
	defaultSymbol string
}

// NewOptionsHandler creates a new options trigger handler
func NewOptionsHandler(runner CycleRunner, defaultSymbol string, log *logger.Logger) *OptionsHandler {
	return &OptionsHandler{
		runner:        runner,
		logger:        log,
		defaultSymbol: defaultSymbol,
	}
}

// triggerRequest is the decoded action request; fields come from the query
// string or, on POST, a JSON body. Query values win.
type triggerRequest struct {
	Action    string `json:"action"`
	Symbol    string `json:"symbol"`
	Expiry    string `json:"expiry"`
	ForceTest bool   `json:"force_test"`
}

// envelope is the uniform response shape for every action.
type envelope struct {
	Success        bool        `json:"success"`
	Timestamp      string      `json:"timestamp"`
	Symbol         string      `json:"symbol,omitempty"`
	ExpiryDate     string      `json:"expiryDate,omitempty"`
	Action         string      `json:"action"`
	MarketStatus   string      `json:"marketStatus,omitempty"`
	NextMarketOpen *time.Time  `json:"nextMarketOpen,omitempty"`
	Result         interface{} `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// Dispatch routes one trigger request to the requested action.
// GET/POST / and /api/options
func (h *OptionsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := h.parseRequest(r)
	if req.Symbol == "" {
		req.Symbol = h.defaultSymbol
	}

	h.logger.WithFields(map[string]interface{}{
		"action": req.Action,
		"symbol": req.Symbol,
		"expiry": req.Expiry,
		"forced": req.ForceTest,
	}).Info("Trigger request")

	env := envelope{
		Success:    true,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Symbol:     req.Symbol,
		ExpiryDate: req.Expiry,
		Action:     req.Action,
	}

	switch req.Action {
	case ActionHealthCheck:
		status, next := h.runner.MarketStatus(time.Now().UTC())
		env.MarketStatus = status
		env.NextMarketOpen = next
		env.Result = map[string]string{"status": "ok"}
		respondJSON(w, http.StatusOK, env)

	case ActionFetchAndStore, ActionFetchOnly:
		result, err := h.runner.Run(ctx, pipeline.Options{
			Symbol:    req.Symbol,
			Expiry:    req.Expiry,
			ForceTest: req.ForceTest,
			FetchOnly: req.Action == ActionFetchOnly,
		})
		if err != nil {
			h.respondFailure(w, env, "ingestion cycle failed", err)
			return
		}
		env.MarketStatus = result.MarketStatus
		env.NextMarketOpen = result.NextMarketOpen
		env.Result = result
		respondJSON(w, http.StatusOK, env)

	case ActionExpiryDates:
		dates, err := h.runner.ExpiryDates(ctx, req.Symbol)
		if err != nil {
			h.respondFailure(w, env, "expiry date lookup failed", err)
			return
		}
		env.Result = map[string]interface{}{"expiryDates": dates}
		respondJSON(w, http.StatusOK, env)

	case ActionOptionsData:
		if req.Expiry == "" {
			env.Success = false
			env.Error = "missing parameter"
			env.Message = "expiry is required for get-options-data"
			respondJSON(w, http.StatusBadRequest, env)
			return
		}
		data, err := h.runner.OptionsData(ctx, req.Symbol, req.Expiry)
		if err != nil {
			h.respondFailure(w, env, "options data lookup failed", err)
			return
		}
		env.Result = data
		respondJSON(w, http.StatusOK, env)

	case ActionUnderlyingPrice:
		price, err := h.runner.UnderlyingPrice(ctx, req.Symbol)
		if err != nil {
			h.respondFailure(w, env, "underlying price lookup failed", err)
			return
		}
		env.Result = price
		respondJSON(w, http.StatusOK, env)

	default:
		env.Success = false
		env.Error = "unknown action"
		env.Message = "valid actions: health-check, fetch-and-store, fetch-only, get-expiry-dates, get-options-data, get-underlying-price"
		respondJSON(w, http.StatusBadRequest, env)
	}
}

// parseRequest merges the JSON body (POST) and query string; query values
// take precedence so curl-style triggers stay simple.
func (h *OptionsHandler) parseRequest(r *http.Request) triggerRequest {
	var req triggerRequest

	if r.Method == http.MethodPost && r.Body != nil {
		// Body decode failures fall through to query parsing.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	q := r.URL.Query()
	if v := q.Get("action"); v != "" {
		req.Action = v
	}
	if v := q.Get("symbol"); v != "" {
		req.Symbol = v
	}
	if v := q.Get("expiry"); v != "" {
		req.Expiry = v
	}
	if v := q.Get("force_test"); v != "" {
		req.ForceTest = strings.EqualFold(v, "true") || v == "1"
	}

	if req.Action == "" {
		req.Action = ActionHealthCheck
	}

	return req
}

func (h *OptionsHandler) respondFailure(w http.ResponseWriter, env envelope, message string, err error) {
	h.logger.WithError(err).WithField("action", env.Action).Error("Trigger action failed")

	env.Success = false
	env.Error = err.Error()
	env.Message = message
	respondJSON(w, http.StatusInternalServerError, env)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
