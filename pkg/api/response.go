// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/dmolins/convo/pkg/errors"
)

// errorResponse is the error envelope on every non-2xx response.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// detailOf extracts a human-readable message without leaking wrapped causes
// that may carry provider URLs or keys.
func detailOf(err error) string {
	var ce *errors.Error
	if stderrors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

// writeTypedError derives the status from the error taxonomy. Handlers that
// need an endpoint-specific status pick it themselves and call writeError.
func writeTypedError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ce *errors.Error
	if stderrors.As(err, &ce) && ce.StatusCode != 0 {
		status = ce.StatusCode
	}
	writeError(w, status, detailOf(err))
}
