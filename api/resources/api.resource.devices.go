package resources

import (
	"encoding/json"
	"net/http"

	"github.com/itsatony/triaxis/api/middleware"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/itsatony/triaxis/internal/service"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	service *service.Service
}

// @Summary Register a device
// @Description Register a new device under its external id
// @Tags devices
// @Accept json
// @Produce json
// @Param device body models.DeviceRegistration true "Device registration"
// @Success 201 {object} models.Device
// @Failure 400 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /devices [post]
func (h *DeviceHandlers) CreateDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var reg models.DeviceRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err), requestID)
		return
	}

	device, err := h.service.RegisterDevice(r.Context(), reg)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, device)
}

// @Summary Get a device by ID
// @Tags devices
// @Produce json
// @Param id path int true "Internal device ID"
// @Success 200 {object} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices/{id} [get]
func (h *DeviceHandlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, apiErr := deviceIDParam(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	device, err := h.service.GetDevice(r.Context(), id)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary List devices
// @Description List all devices, filtered by owner or resolved by external device id
// @Tags devices
// @Produce json
// @Param owner query string false "Owner"
// @Param device_id query string false "External device ID"
// @Success 200 {array} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	if deviceID := query.Get("device_id"); deviceID != "" {
		device, err := h.service.ResolveDevice(r.Context(), deviceID)
		if err != nil {
			respondWithError(w, err, requestID)
			return
		}
		respondWithJSON(w, http.StatusOK, []*models.Device{device})
		return
	}

	devices, err := h.service.ListDevices(r.Context(), query.Get("owner"))
	if err != nil {
		respondWithError(w, errors.NewDatabaseError("failed to list devices", err), requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Synchronous per-axis statistics
// @Description Min, max, count, sum and median of each axis inside the window
// @Tags devices
// @Produce json
// @Param id path int true "Internal device ID"
// @Param start_time query string true "Window start (RFC 3339)"
// @Param end_time query string true "Window end (RFC 3339)"
// @Success 200 {object} models.DeviceAnalytics
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/analytics [get]
func (h *DeviceHandlers) GetDeviceAnalytics(w http.ResponseWriter, r *http.Request) {
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

	analytics, err := h.service.GetDeviceAnalytics(r.Context(), id, window)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, analytics)
}
