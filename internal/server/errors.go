// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"m4o.io/demtiles"
)

type message struct {
	Message string `json:"message"`
}

// status classifies err.  Absence of data is not a failure.
func status(err error) int {
	switch {
	case errors.Is(err, demtiles.ErrNoData):
		return http.StatusNoContent
	case errors.Is(err, demtiles.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)

	switch {
	case code == http.StatusNoContent:
		w.WriteHeader(code)
	case code == http.StatusBadRequest:
		writeMessage(w, code, err.Error())
	case errors.Is(err, demtiles.ErrInsufficientData):
		writeMessage(w, code, demtiles.ErrInsufficientData.Error())
	default:
		slog.Error("unable to serve request", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		writeMessage(w, code, http.StatusText(code))
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	b, _ := json.Marshal(message{Message: msg})

	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
