package server

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteNotFound writes the relay's uniform 404 body.
func WriteNotFound(w http.ResponseWriter) error {
	return WriteJSON(w, http.StatusNotFound, map[string]string{
		"error": "Not found",
	})
}
