package models

import (
	"time"
)

// Attendance status values shared between the tracker and the API server.
const (
	StatusCheckedIn  = "CHECKED_IN"
	StatusCheckedOut = "CHECKED_OUT"
	StatusPending    = "PENDING"
	StatusRejected   = "REJECTED"
)

// OfficeLocation represents a registered office geofence center
type OfficeLocation struct {
	Id        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    float64   `json:"radius"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// AttendanceRecord represents one check-in/check-out cycle for a user
type AttendanceRecord struct {
	Id               string     `gorm:"primaryKey;not null" json:"id"`
	UserId           string     `gorm:"index" json:"user_id"`
	LocationId       string     `json:"location_id"`
	CheckInTime      *time.Time `json:"check_in_time"`
	CheckOutTime     *time.Time `json:"check_out_time"`
	Status           string     `json:"status"`
	IsAutoEnabled    bool       `json:"is_auto_enabled"`
	AutoStatus       string     `json:"auto_status"`
	AutoCheckInTime  *time.Time `json:"auto_check_in_time"`
	AutoCheckOutTime *time.Time `json:"auto_check_out_time"`
	AutoLocation     string     `json:"auto_location"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserPreference represents per-user tracking settings
type UserPreference struct {
	UserId                string    `gorm:"primaryKey;not null" json:"user_id"`
	AutoAttendanceEnabled bool      `json:"auto_attendance_enabled"`
	CreatedAt             time.Time `json:"-"`
	UpdatedAt             time.Time `json:"-"`
}

// TrackerSnapshot is the single upserted row the tracker daemon publishes
// for the API tier. It mirrors the live tracking state of the device.
type TrackerSnapshot struct {
	Id                  int        `gorm:"primaryKey" json:"id"`
	UserId              string     `json:"user_id"`
	LocationId          string     `json:"location_id"`
	Latitude            float64    `json:"latitude"`
	Longitude           float64    `json:"longitude"`
	Accuracy            float64    `json:"accuracy"`
	Distance            float64    `json:"distance"`
	IsWithinGeofence    bool       `json:"is_within_geofence"`
	IsTracking          bool       `json:"is_tracking"`
	LocationReached     bool       `json:"location_reached"`
	TimeInsideGeofence  int64      `json:"time_inside_geofence"`
	TimeOutsideGeofence int64      `json:"time_outside_geofence"`
	AutoStatus          string     `json:"auto_status"`
	ErrorCode           int        `json:"error_code"`
	ErrorMessage        string     `json:"error_message"`
	PositionAt          *time.Time `json:"position_at"`
	CreatedAt           time.Time  `json:"-"`
	UpdatedAt           time.Time  `json:"refreshed_at"`
}
