package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/triaxis/api/middleware"
	"github.com/itsatony/triaxis/internal/service"
)

// AnalysisHandlers encapsulates job submission and result lookup
type AnalysisHandlers struct {
	service *service.Service
}

type taskResponse struct {
	TaskID string `json:"task_id"`
}

// @Summary Analyze one device
// @Description Enqueue an averaging job over the device's readings in the window
// @Tags analysis
// @Accept json
// @Produce json
// @Param id path int true "Internal device ID"
// @Param window body windowRequest true "Analysis window"
// @Success 202 {object} taskResponse
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/analyze [post]
func (h *AnalysisHandlers) AnalyzeDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, apiErr := deviceIDParam(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	window, apiErr := windowBody(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	jobID, err := h.service.StartDeviceAnalysis(r.Context(), id, window)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusAccepted, taskResponse{TaskID: jobID})
}

// @Summary Analyze all devices of an owner
// @Description Enqueue one job per device. The response maps device ids to job ids.
// @Tags analysis
// @Accept json
// @Produce json
// @Param owner path string true "Owner"
// @Param window body windowRequest true "Analysis window"
// @Success 202 {object} models.FanOut
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /users/{owner}/analyze [post]
func (h *AnalysisHandlers) AnalyzeOwner(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	window, apiErr := windowBody(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	fanOut, err := h.service.StartOwnerAnalysis(r.Context(), mux.Vars(r)["owner"], window)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusAccepted, fanOut)
}

// @Summary Analyze every registered device
// @Tags analysis
// @Accept json
// @Produce json
// @Param window body windowRequest true "Analysis window"
// @Success 202 {object} models.FanOut
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /analyze [post]
func (h *AnalysisHandlers) AnalyzeFleet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	window, apiErr := windowBody(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	fanOut, err := h.service.StartFleetAnalysis(r.Context(), window)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusAccepted, fanOut)
}

// @Summary Get job status
// @Description Pending, failed, or succeeded with the result payload
// @Tags analysis
// @Produce json
// @Param task_id path string true "Job ID"
// @Success 200 {object} models.JobStatus
// @Failure 404 {object} errors.APIError
// @Failure 500 {object} errors.APIError
// @Router /analysis/{task_id} [get]
func (h *AnalysisHandlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status, err := h.service.JobStatus(r.Context(), mux.Vars(r)["task_id"])
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary List stored analysis results of a device
// @Tags analysis
// @Produce json
// @Param id path int true "Internal device ID"
// @Success 200 {array} models.AnalysisResult
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/analysis [get]
func (h *AnalysisHandlers) ListDeviceAnalyses(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, apiErr := deviceIDParam(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	results, err := h.service.ListDeviceAnalyses(r.Context(), id)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
