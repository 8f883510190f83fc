package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/api/shared"
	"github.com/phrazzld/promptq/internal/domain"
)

// getPathUUID extracts a UUID from the URL path parameters.
// It parses and validates the UUID, handling common error cases.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.ErrValidation
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}

	return id, nil
}

// handleAPIError maps an internal error to a sanitized HTTP error response
// and logs the underlying cause.
func handleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
