// FilePath: internal/models/models.reading.go
package models

import (
	"time"

	"github.com/itsatony/triaxis/internal/stats"
)

// Reading is a single timestamped 3-axis sample of a device
type Reading struct {
	ID        string    `json:"id" db:"id"`
	DeviceID  int64     `json:"device_id" db:"device_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	X         float64   `json:"x" db:"x"`
	Y         float64   `json:"y" db:"y"`
	Z         float64   `json:"z" db:"z"`
}

// ReadingInput is the ingestion payload. A zero Timestamp means "now".
type ReadingInput struct {
	X         *float64   `json:"x"`
	Y         *float64   `json:"y"`
	Z         *float64   `json:"z"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DeviceAnalytics holds descriptive statistics computed independently per axis
type DeviceAnalytics struct {
	X stats.Summary `json:"x"`
	Y stats.Summary `json:"y"`
	Z stats.Summary `json:"z"`
}

// Axes splits readings into their x, y and z sample sequences.
func Axes(readings []Reading) (xs, ys, zs []float64) {
	xs = make([]float64, 0, len(readings))
	ys = make([]float64, 0, len(readings))
	zs = make([]float64, 0, len(readings))
	for _, r := range readings {
		xs = append(xs, r.X)
		ys = append(ys, r.Y)
		zs = append(zs, r.Z)
	}
	return xs, ys, zs
}

// AnalyzeReadings applies the statistics engine to each axis of readings.
func AnalyzeReadings(readings []Reading) DeviceAnalytics {
	xs, ys, zs := Axes(readings)
	return DeviceAnalytics{
		X: stats.Compute(xs),
		Y: stats.Compute(ys),
		Z: stats.Compute(zs),
	}
}
