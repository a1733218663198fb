package handlers

import (
	"encoding/json"
	"net/http"
)

// fieldError is one entry of an array-valued {"detail": [...]} body.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// respondJSON is a helper function to format and send JSON responses.
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondDetail sends the error envelope every failure uses. detail is
// either a string or a []fieldError.
func respondDetail(w http.ResponseWriter, code int, detail interface{}) {
	respondJSON(w, code, map[string]interface{}{"detail": detail})
}
