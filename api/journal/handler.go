// Package journal exposes the tick journal over HTTP.
package journal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	corejournal "github.com/kilianp07/assetsim/core/journal"
)

// NewHandler returns an HTTP handler exposing tick records via GET /api/journal.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
// Supported filters are start and end (RFC3339), experiment_id and phase.
func NewHandler(store corejournal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []corejournal.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (corejournal.Query, error) {
	v := r.URL.Query()
	q := corejournal.Query{ExperimentID: v.Get("experiment_id")}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	if s := v.Get("phase"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return q, err
		}
		q.Phase = p
	}
	return q, nil
}
