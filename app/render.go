// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package app

import (
	"encoding/json"
	"net/http"
	"strings"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/translation"
)

type validationBody struct {
	Detail []translation.ValidationError `json:"detail"`
}

// WriteValidationErrors answers 422 with errs translated into the locale
// the request's Accept-Language header negotiates. Without a translator
// the messages are sent as given.
func (a *App) WriteValidationErrors(w http.ResponseWriter, r *http.Request, errs []translation.ValidationError) {
	detail := errs
	if a.Translator != nil {
		locale := a.Translator.Negotiate(r.Header.Get("Accept-Language"))
		if t, err := a.Translator.WithLocale(locale); err == nil {
			if translated, err := t.Translate(errs); err == nil {
				detail = translated
				w.Header().Set("Content-Language", strings.ReplaceAll(locale, "_", "-"))
			}
		}
	}
	if detail == nil {
		detail = []translation.ValidationError{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(validationBody{Detail: detail}); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "app")
		logger.Error().Err(err).Msg("failed to encode validation errors")
	}
}
