// Package experiments exposes the running experiments over HTTP.
package experiments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/ev"
	"github.com/kilianp07/assetsim/core/store"
)

// Service is the engine surface used by the handlers.
type Service interface {
	Experiments() []string
	Status(experimentID string) (store.Status, error)
	UpdateCars(ctx context.Context, experimentID, stationID string, cars []int) error
}

// CarsRequest is the body of a bay occupancy update.
type CarsRequest struct {
	Cars []int `json:"cars"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Register mounts the experiment routes on r:
//
//	GET /api/experiments
//	GET /api/experiments/{id}
//	PUT /api/experiments/{id}/stations/{station}/cars
func Register(r *mux.Router, svc Service) {
	r.HandleFunc("/api/experiments", list(svc)).Methods(http.MethodGet)
	r.HandleFunc("/api/experiments/{id}", status(svc)).Methods(http.MethodGet)
	r.HandleFunc("/api/experiments/{id}/stations/{station}/cars", updateCars(svc)).Methods(http.MethodPut)
}

func list(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ids := svc.Experiments()
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

func status(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Status(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func updateCars(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		var req CarsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
			return
		}
		if err := svc.UpdateCars(r.Context(), vars["id"], vars["station"], req.Cars); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnknownExperiment), errors.Is(err, engine.ErrUnknownStation):
		code = http.StatusNotFound
	case errors.Is(err, ev.ErrInvalidOccupancy):
		code = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
