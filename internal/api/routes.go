package api

import (
	"github.com/gorilla/mux"
)

// NewRouter configures the status routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", handler.Health).Methods("GET")
	r.HandleFunc("/runs/latest", handler.LatestRun).Methods("GET")
	r.HandleFunc("/runs", handler.TriggerRun).Methods("POST")

	return r
}
