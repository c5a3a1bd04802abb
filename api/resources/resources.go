package resources

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/itsatony/triaxis/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Devices     *DeviceHandlers
	Readings    *ReadingHandlers
	Analysis    *AnalysisHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// NewResources creates a new Resources instance
func NewResources(svc *service.Service) *Resources {
	return &Resources{
		Devices:  &DeviceHandlers{service: svc},
		Readings: &ReadingHandlers{service: svc},
		Analysis: &AnalysisHandlers{service: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h http.Handler) {
	r.Metrics = h
}

// timeLayouts are tried in order when parsing window bounds
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected RFC 3339", value)
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		t, err := parseTime(value)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(t)
	})
	return d
}

// windowQuery decodes start_time and end_time from the query string
func windowQuery(r *http.Request) (models.Window, *errors.APIError) {
	var window models.Window
	if err := queryDecoder.Decode(&window, r.URL.Query()); err != nil {
		return window, errors.NewValidationError("invalid start_time or end_time", err)
	}
	if err := window.Validate(); err != nil {
		return window, errors.NewValidationError(err.Error(), err)
	}
	return window, nil
}

// windowRequest is the JSON body of analysis submissions
type windowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func windowBody(r *http.Request) (models.Window, *errors.APIError) {
	var body windowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.Window{}, errors.NewValidationError("invalid request body", err)
	}
	if body.StartTime == "" || body.EndTime == "" {
		return models.Window{}, errors.NewValidationError("start_time and end_time are required", nil)
	}
	start, err := parseTime(body.StartTime)
	if err != nil {
		return models.Window{}, errors.NewValidationError(err.Error(), err)
	}
	end, err := parseTime(body.EndTime)
	if err != nil {
		return models.Window{}, errors.NewValidationError(err.Error(), err)
	}
	return models.Window{Start: start, End: end}, nil
}

func deviceIDParam(r *http.Request) (int64, *errors.APIError) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("invalid device id "+strconv.Quote(raw), err)
	}
	return id, nil
}

// respondWithError writes err as an APIError. Errors that are not APIErrors
// become internal errors.
func respondWithError(w http.ResponseWriter, err error, requestID string) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.NewInternalError("internal server error", err)
	}
	apiErr.WithRequestID(requestID)

	if apiErr.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", apiErr.Error())
	} else {
		nuts.L.Debugf("[API] %s", apiErr.Error())
	}
	respondWithJSON(w, apiErr.Code, apiErr)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
