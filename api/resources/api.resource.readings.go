package resources

import (
	"encoding/json"
	"net/http"

	"github.com/itsatony/triaxis/api/middleware"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/itsatony/triaxis/internal/service"
)

// ReadingHandlers encapsulates reading ingestion and listing
type ReadingHandlers struct {
	service *service.Service
}

// @Summary Record a reading
// @Tags readings
// @Accept json
// @Produce json
// @Param id path int true "Internal device ID"
// @Param reading body models.ReadingInput true "3-axis sample"
// @Success 201 {object} models.Reading
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/stats [post]
func (h *ReadingHandlers) CreateReading(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, apiErr := deviceIDParam(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var in models.ReadingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err), requestID)
		return
	}

	reading, err := h.service.RecordReading(r.Context(), id, in)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, reading)
}

// @Summary List readings in a window
// @Tags readings
// @Produce json
// @Param id path int true "Internal device ID"
// @Param start_time query string true "Window start (RFC 3339)"
// @Param end_time query string true "Window end (RFC 3339)"
// @Success 200 {array} models.Reading
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/stats [get]
func (h *ReadingHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, apiErr := deviceIDParam(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	window, apiErr := windowQuery(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	readings, err := h.service.GetReadings(r.Context(), id, window)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}
