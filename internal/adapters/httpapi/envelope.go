package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
	"github.com/sfc-mobility/campus-rides-api/internal/app/users"
)

// Every response is enveloped: {ok:true, data} on success (data omitted for
// pure side-effect operations) or {ok:false, error} on failure.
type envelope struct {
	OK    bool           `json:"ok"`
	Data  any            `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
	// Details maps offending fields to error codes on validation failures.
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

func writeError(w http.ResponseWriter, status int, code string, details map[string]string) {
	writeJSON(w, status, envelope{OK: false, Error: code, Details: details})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized", nil)
}

// writeServiceError maps an application error to the envelope. Anything that
// is not a tagged *rides.Error / *users.Error is an unexpected failure: it is
// logged with the request id and reported as a generic internal_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if re := (*rides.Error)(nil); errors.As(err, &re) {
		writeError(w, re.Status, re.Code, re.Details)
		return
	}
	if ue := (*users.Error)(nil); errors.As(err, &ue) {
		writeError(w, ue.Status, ue.Code, nil)
		return
	}
	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}
