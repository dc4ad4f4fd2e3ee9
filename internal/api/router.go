package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/api/recovery"
	"github.com/unionlens/contract-assistant/internal/services"
)

// Deps carries the constructed services the router wires handlers onto.
type Deps struct {
	Users     *services.UserService
	Assistant *services.AssistantService
	Resolver  *access.Resolver
	Log       zerolog.Logger
	// DB is optional; when set the /v0/health/db probe pings it.
	DB Pinger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	router.Use(recovery.Middleware(d.Log))

	userHandler := NewUserHandler(d.Users)
	assistantHandler := NewAssistantHandler(d.Assistant)
	billingHandler := NewBillingHandler(d.Resolver)
	healthHandler := NewHealthHandler(d.DB)

	// Health endpoints
	router.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/v0/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// User endpoints
	router.HandleFunc("/v0/users", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/v0/users/{userId}", userHandler.GetUser).Methods("GET")
	router.HandleFunc("/v0/users/{userId}/limits", assistantHandler.GetLimits).Methods("GET")

	// Contract endpoints
	router.HandleFunc("/v0/users/{userId}/contracts", assistantHandler.UploadContract).Methods("POST")
	router.HandleFunc("/v0/users/{userId}/contracts/{contractId:[0-9a-fA-F-]{36}}/query", assistantHandler.QueryContract).Methods("POST")
	router.HandleFunc("/v0/users/{userId}/contracts/{contractId:[0-9a-fA-F-]{36}}/messages", assistantHandler.ListMessages).Methods("GET")

	// Billing event ingestion
	router.HandleFunc("/v0/billing/events", billingHandler.HandleEvent).Methods("POST")

	return router
}
