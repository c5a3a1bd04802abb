package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/triaxis/api/middleware"
	"github.com/itsatony/triaxis/api/resources"
	_ "github.com/itsatony/triaxis/docs"
	"github.com/itsatony/triaxis/internal/service"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

// NewRouter wires every API route. health and metrics may be nil.
func NewRouter(svc *service.Service, health http.HandlerFunc, metrics http.Handler) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc),
	}
	if health == nil {
		health = defaultHealth
	}
	r.resources.SetHealthCheck(health)
	r.resources.SetMetrics(metrics)

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.router.Use(middleware.RequestID)

	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/docs/openapi.json", serveOpenAPI).Methods(http.MethodGet)
	if r.resources.Metrics != nil {
		api.Handle("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	}

	// Devices
	devices := api.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("", r.resources.Devices.CreateDevice).Methods(http.MethodPost)
	devices.HandleFunc("/{id}", r.resources.Devices.GetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/analytics", r.resources.Devices.GetDeviceAnalytics).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/stats", r.resources.Readings.CreateReading).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/stats", r.resources.Readings.ListReadings).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/analyze", r.resources.Analysis.AnalyzeDevice).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/analysis", r.resources.Analysis.ListDeviceAnalyses).Methods(http.MethodGet)

	// Analysis
	api.HandleFunc("/users/{owner}/analyze", r.resources.Analysis.AnalyzeOwner).Methods(http.MethodPost)
	api.HandleFunc("/analyze", r.resources.Analysis.AnalyzeFleet).Methods(http.MethodPost)
	api.HandleFunc("/analysis/{task_id}", r.resources.Analysis.GetJobStatus).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func defaultHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
