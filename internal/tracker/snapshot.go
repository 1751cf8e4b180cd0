package tracker

import (
	"time"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
	"github.com/Kalpa111334/Hr-Management/internal/geo"
	"github.com/Kalpa111334/Hr-Management/internal/geofence"
	"github.com/Kalpa111334/Hr-Management/internal/sampler"
)

// StatusError is the structured error surfaced to the UI tier instead
// of a thrown failure, so banners can render without killing the loop.
type StatusError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CodeMutationFailed marks an attendance store mutation rejection, as
// opposed to the provider location codes.
const CodeMutationFailed = 10

// EmergencyFix is one retained position while emergency mode is active.
type EmergencyFix struct {
	Position  geo.Fix   `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the reactive state the tracker exposes upward to the UI
// tier. Durations are reported in milliseconds.
type Snapshot struct {
	Position                 *geo.Fix                  `json:"position"`
	Distance                 float64                   `json:"distance"`
	Accuracy                 float64                   `json:"accuracy"`
	IsWithinGeofence         bool                      `json:"is_within_geofence"`
	IsTracking               bool                      `json:"is_tracking"`
	LocationReached          bool                      `json:"location_reached"`
	TimeInsideGeofence       int64                     `json:"time_inside_geofence"`
	TimeOutsideGeofence      int64                     `json:"time_outside_geofence"`
	AutoStatus               attendance.Status         `json:"auto_status"`
	EmergencyLocation        *geofence.Target          `json:"emergency_location"`
	EmergencyLocationHistory []EmergencyFix            `json:"emergency_location_history"`
	MovementPatterns         []sampler.MovementPattern `json:"movement_patterns"`
	Error                    *StatusError              `json:"error"`
}
