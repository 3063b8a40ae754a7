// FilePath: api/resources/api.resource.helpers.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/errors"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		nuts.L.Errorf("[API] Failed to marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"internal","message":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, apiErr *errors.APIError) {
	nuts.L.Errorf("[API] %v", apiErr)
	respondWithJSON(w, apiErr.Code, apiErr)
}
