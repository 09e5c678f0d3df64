package http

import (
	"encoding/json"
	"net/http"
)

// ErrorObject represents a simplified JSON:API error object
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorResponse is the top-level JSON:API error response
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// respondWithError sends a single JSON:API error response
func respondWithError(w http.ResponseWriter, statusCode int, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Errors: []ErrorObject{
			{
				Status: http.StatusText(statusCode),
				Title:  title,
				Detail: detail,
			},
		},
	}

	json.NewEncoder(w).Encode(response)
}
