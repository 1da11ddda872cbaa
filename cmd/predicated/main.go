// Command predicated is a demo HTTP host for the predicate engine: it is
// host-side wiring around the core module, not part of it (spec.md §1).
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	servertiming "github.com/mitchellh/go-server-timing"

	"github.com/sparrowhq/predicate"
	"github.com/sparrowhq/predicate/internal/observability"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	obs := observability.NewConfig(observability.WithServerTiming())
	obs.Initialize()

	subscriptions := predicate.NewSimplePredicateSet(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /evaluate", handleEvaluate(logger, obs))
	mux.HandleFunc("POST /subscriptions", handleSubscribe(logger, subscriptions))
	mux.HandleFunc("POST /subscriptions/match", handleMatch(logger, subscriptions))

	logger.Info("predicated starting", "addr", ":8080")
	logger.Info("endpoints",
		"evaluate", "POST http://localhost:8080/evaluate",
		"subscribe", "POST http://localhost:8080/subscriptions",
		"match", "POST http://localhost:8080/subscriptions/match")

	handler := servertiming.Middleware(mux, nil)
	if err := http.ListenAndServe(":8080", handler); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

type evaluateRequest struct {
	Source   string             `json:"source"`
	Document predicate.Document `json:"document"`
}

type evaluateResponse struct {
	Valid       bool                   `json:"valid"`
	Matched     bool                   `json:"matched"`
	Errors      []predicate.Diagnostic `json:"errors,omitempty"`
	Description string                 `json:"description,omitempty"`
}

func handleEvaluate(logger *slog.Logger, obs *observability.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timing := observability.StartServerTiming(r.Context(), "parse+evaluate")
		defer timing.Stop()

		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		pred := predicate.New(req.Source, predicate.WithLogger(logger), predicate.WithObservability(obs))
		resp := evaluateResponse{
			Valid:  pred.IsValid(),
			Errors: pred.Errors(),
		}
		if pred.IsValid() {
			resp.Description = pred.Description()
			resp.Matched = pred.Evaluate(req.Document)
		}

		writeJSON(w, resp)
	}
}

type subscribeRequest struct {
	Source string `json:"source"`
}

type subscribeResponse struct {
	ID     string                 `json:"id"`
	Valid  bool                   `json:"valid"`
	Errors []predicate.Diagnostic `json:"errors,omitempty"`
}

func handleSubscribe(logger *slog.Logger, set *predicate.SimplePredicateSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		pred := predicate.New(req.Source, predicate.WithLogger(logger))
		set.Add(pred)
		writeJSON(w, subscribeResponse{ID: pred.ID().String(), Valid: pred.IsValid(), Errors: pred.Errors()})
	}
}

type matchResponse struct {
	MatchedIDs []string `json:"matched_ids"`
}

func handleMatch(logger *slog.Logger, set *predicate.SimplePredicateSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timing := observability.StartServerTiming(r.Context(), "match")
		defer timing.Stop()

		var doc predicate.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		matches := set.Evaluate(doc)
		ids := make([]string, len(matches))
		for i, p := range matches {
			ids[i] = p.ID().String()
		}
		writeJSON(w, matchResponse{MatchedIDs: ids})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
