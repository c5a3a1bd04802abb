// Package memory provides process-local implementations of the repository
// interfaces. They back the "memory" storage backend and the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceRepo is an in-memory device directory
type DeviceRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Device
	byKey  map[string]int64
}

func NewDeviceRepository() *DeviceRepo {
	return &DeviceRepo{
		byID:  make(map[int64]*models.Device),
		byKey: make(map[string]int64),
	}
}

func (r *DeviceRepo) Create(_ context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[device.DeviceID]; exists {
		return errors.NewConflictError("device with ID "+device.DeviceID+" already exists", nil)
	}
	r.nextID++
	device.ID = r.nextID
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}
	stored := *device
	r.byID[device.ID] = &stored
	r.byKey[device.DeviceID] = device.ID
	return nil
}

func (r *DeviceRepo) Get(_ context.Context, id int64) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	d := *device
	return &d, nil
}

func (r *DeviceRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.Device, error) {
	r.mu.RLock()
	id, ok := r.byKey[deviceID]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	return r.Get(ctx, id)
}

func (r *DeviceRepo) ListByOwner(_ context.Context, owner string) ([]*models.Device, error) {
	return r.filter(func(d *models.Device) bool {
		return d.Owner != nil && *d.Owner == owner
	}), nil
}

func (r *DeviceRepo) List(_ context.Context) ([]*models.Device, error) {
	return r.filter(func(*models.Device) bool { return true }), nil
}

func (r *DeviceRepo) filter(keep func(*models.Device) bool) []*models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := []*models.Device{}
	for _, device := range r.byID {
		if keep(device) {
			d := *device
			devices = append(devices, &d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// ReadingRepo is an in-memory reading store
type ReadingRepo struct {
	mu       sync.RWMutex
	readings map[int64][]models.Reading
}

func NewReadingRepository() *ReadingRepo {
	return &ReadingRepo{readings: make(map[int64][]models.Reading)}
}

func (r *ReadingRepo) InsertReading(_ context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[reading.DeviceID] = append(r.readings[reading.DeviceID], *reading)
	return nil
}

// GetReadings returns readings with start <= timestamp <= end, oldest first
func (r *ReadingRepo) GetReadings(_ context.Context, deviceID int64, start, end time.Time) ([]models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := []models.Reading{}
	for _, reading := range r.readings[deviceID] {
		if reading.Timestamp.Before(start) || reading.Timestamp.After(end) {
			continue
		}
		readings = append(readings, reading)
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return readings, nil
}

// AnalysisResultRepo is an in-memory result store keyed by job id
type AnalysisResultRepo struct {
	mu      sync.RWMutex
	nextID  int64
	byJobID map[string]*models.AnalysisResult
	order   []string
}

func NewAnalysisResultRepository() *AnalysisResultRepo {
	return &AnalysisResultRepo{byJobID: make(map[string]*models.AnalysisResult)}
}

// Save stores the result unless the job id is already present
func (r *AnalysisResultRepo) Save(_ context.Context, result *models.AnalysisResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byJobID[result.JobID]; exists {
		return false, nil
	}
	r.nextID++
	result.ID = r.nextID
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	stored := *result
	r.byJobID[result.JobID] = &stored
	r.order = append(r.order, result.JobID)
	return true, nil
}

func (r *AnalysisResultRepo) GetByJobID(_ context.Context, jobID string) (*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.byJobID[jobID]
	if !ok {
		return nil, errors.NewNotFoundError("analysis result not found", nil)
	}
	res := *result
	return &res, nil
}

func (r *AnalysisResultRepo) ListByDevice(_ context.Context, deviceID int64) ([]*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []*models.AnalysisResult{}
	for _, jobID := range r.order {
		if result := r.byJobID[jobID]; result.DeviceID == deviceID {
			res := *result
			results = append(results, &res)
		}
	}
	return results, nil
}

// Count returns the number of stored results
func (r *AnalysisResultRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byJobID)
}
