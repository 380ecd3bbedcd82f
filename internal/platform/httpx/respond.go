package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adboard/adboard/internal/shared"
)

// MessageBody is the envelope used for every non-resource response.
type MessageBody struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends a {message} body.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// DecodeJSON decodes the request body into target.
// Malformed or empty bodies are reported as validation errors.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body required", shared.ErrValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrValidation)
	}
	return nil
}
