package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/backup"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Warn("encoding response", zap.Error(err))
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeError maps domain errors to status codes. Anything unknown is
// logged and answered with fallback as a 500.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var ve *inventory.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, inventory.ErrInvalidImport):
		jsonError(w, http.StatusBadRequest, inventory.ErrInvalidImport.Error())
	case errors.Is(err, inventory.ErrForbidden), errors.Is(err, inventory.ErrQuotaExceeded):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrFeatureDisabled):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrConfirmationRequired):
		jsonError(w, http.StatusPreconditionRequired, "confirmation required: repeat the request with confirm=true")
	case errors.Is(err, store.ErrAIQuotaExceeded):
		jsonError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ai.ErrDisabled), errors.Is(err, backup.ErrDisabled):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zap.L().Error(fallback, zap.Error(err))
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}

// confirmed reports whether the request carries confirm=true.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
