package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/middleware"
	"tcg-inventory-api/internal/service"
	"tcg-inventory-api/pkg/apierror"
	"tcg-inventory-api/pkg/response"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// toAPIError maps ledger errors onto HTTP errors.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, service.ErrInvalidInput):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, service.ErrUnknownUser):
		return apierror.NotFound("UNKNOWN_USER", err.Error())
	case errors.Is(err, service.ErrCardNotFound):
		return apierror.NotFound("CARD_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrDuplicateIdentity):
		return apierror.Conflict("DUPLICATE_IDENTITY", err.Error())
	case errors.Is(err, service.ErrPriceUnavailable):
		return apierror.UnprocessableEntity("PRICE_UNAVAILABLE", err.Error())
	}
	return apierror.InternalError("")
}

// writeError renders err and logs anything that maps to a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).WithError(err).Error("[Handler] Request failed")
	}
	response.Error(w, apiErr)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// required collects a FieldError for every empty field.
func required(fields map[string]string) *apierror.Error {
	var details []apierror.FieldError
	for _, name := range sortedKeys(fields) {
		if fields[name] == "" {
			details = append(details, apierror.FieldError{Field: name, Message: "is required"})
		}
	}
	if len(details) == 0 {
		return nil
	}
	return apierror.ValidationError("missing required fields", details...)
}
