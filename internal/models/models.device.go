// FilePath: internal/models/models.device.go
package models

import "time"

// Device is a named source of readings. DeviceID is the externally assigned
// identifier, ID the internal one used by readings and analysis results.
type Device struct {
	ID        int64     `json:"id" db:"id"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	Owner     *string   `json:"owner,omitempty" db:"owner"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeviceRegistration is the payload accepted when a device is first registered.
type DeviceRegistration struct {
	DeviceID string  `json:"device_id"`
	Owner    *string `json:"owner,omitempty"`
}
