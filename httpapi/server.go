package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"fleetrent/auth"
	"fleetrent/catalog"
	"fleetrent/rental"
)

// Server bundles the domain services behind the HTTP surface the SPA consumes.
type Server struct {
	auth     *auth.Service
	vehicles *catalog.Service
	rentals  *rental.Service
	log      zerolog.Logger
}

// NewServer wires the services into a server.
func NewServer(authSvc *auth.Service, vehicles *catalog.Service, rentals *rental.Service, log zerolog.Logger) *Server {
	return &Server{
		auth:     authSvc,
		vehicles: vehicles,
		rentals:  rentals,
		log:      log,
	}
}

// Router builds the full route table with the shared middleware chain.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	limiter := NewRateLimiter(rate.Limit(50), 100)

	r.Use(Recovery(s.log))
	r.Use(RequestLogging(s.log))
	r.Use(SecurityHeaders())
	r.Use(CORS())
	r.Use(limiter.Middleware())

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/vehicles", s.handleListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/rental-requests", s.handleSubmitRequest).Methods(http.MethodPost)
	api.HandleFunc("/rental-requests/{username}", s.handleUserRequests).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{username}", s.handleUserRentals).Methods(http.MethodGet)
	api.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	admin := api.PathPrefix("").Subrouter()
	admin.Use(s.RequireAdmin)
	admin.HandleFunc("/vehicles", s.handleCreateVehicle).Methods(http.MethodPost)
	admin.HandleFunc("/vehicles/{id}", s.handleDeleteVehicle).Methods(http.MethodDelete)
	admin.HandleFunc("/admin/rental-requests", s.handlePendingRequests).Methods(http.MethodGet)
	admin.HandleFunc("/admin/rental-requests/all", s.handleAllRequests).Methods(http.MethodGet)
	admin.HandleFunc("/admin/rental-requests/{id}/accept", s.handleAcceptRequest).Methods(http.MethodPut)
	admin.HandleFunc("/admin/rental-requests/{id}/reject", s.handleRejectRequest).Methods(http.MethodPut)
	admin.HandleFunc("/admin/rentals", s.handleAllRentals).Methods(http.MethodGet)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
