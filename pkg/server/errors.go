package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// errorBody is the `{"error":{"message"}}` shape every failing stage writes.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// writeError writes the gateway's uniform HTTP 500 error body. There is no
// per-error-kind status-code mapping: every user-visible failure surfaces
// this way.
func writeError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")

	body := errorBody{}
	body.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(body)
}
