package server

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/view"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = eris.New("server: bad request")

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	switch {
	case eris.Is(err, errBadRequest),
		eris.Is(err, basin.ErrInvalidCoordinates),
		eris.Is(err, basin.ErrInvalidMethod),
		eris.Is(err, gfc.ErrInvalidParams),
		eris.Is(err, view.ErrManualOff):
		return http.StatusBadRequest
	case eris.Is(err, basin.ErrNoSubcatchment),
		eris.Is(err, basin.ErrNoAOI),
		eris.Is(err, basin.ErrNotResolved):
		return http.StatusUnprocessableEntity
	case eris.Is(err, ErrSessionNotFound),
		eris.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrapf(errBadRequest, "invalid request body: %v", err)
	}
	return nil
}
