// Package api is the REST control surface over a control.Engine: a
// thin net/http façade translating JSON requests into Engine calls and
// Engine state into JSON responses, plus the Prometheus /metrics
// endpoint. It is the boundary collaborator the rest of this module is
// built to be driven by; it owns no traffic-generation state itself.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// envelope is the shape every response carries, per the {success: bool,
// ...} contract: success responses additionally set Data, failures set
// Error and the matching HTTP status.
type envelope struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data}); err != nil {
		logrus.WithError(err).Warn("api: write response")
	}
}

// writeRawJSON wraps an already-marshaled JSON blob (e.g. a config
// snapshot) as the envelope's data field without a decode/re-encode
// round trip.
func writeRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{Success: status < 400, Data: raw}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logrus.WithError(err).Warn("api: write raw response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: err.Error()}); encErr != nil {
		logrus.WithError(encErr).Warn("api: write error response")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
