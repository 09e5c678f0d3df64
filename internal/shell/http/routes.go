package http

import (
	"github.com/gorilla/mux"
)

func SetupRoutes(handler *SyncHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/datasets/{id}/cursor", handler.GetCursor).Methods("GET")
	api.HandleFunc("/datasets/{id}/runs", handler.ListRuns).Methods("GET")
	api.HandleFunc("/datasets/{id}/sync", handler.TriggerSync).Methods("POST")

	router.HandleFunc("/health", handler.Health).Methods("GET")

	return router
}
