package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNoDocuments),
		errors.Is(err, common.ErrNoExtractableText),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrMalformedResponse),
		errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"detail": ...}. Unclassified errors are logged and hidden.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	detail := common.PublicMessage(err)
	if status == http.StatusInternalServerError && !errors.Is(err, common.ErrMissingCredential) {
		logger.Error("http.internal_error", "err", err)
		detail = "Internal server error"
	}
	writeJSON(w, status, errorBody{Detail: detail})
}
