package attendapiserver

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

// SnapshotExtView represents the external view of the tracker snapshot
type SnapshotExtView struct {
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
	ErrorCode           int        `json:"error_code,omitempty"`
	ErrorMessage        string     `json:"error_message,omitempty"`
	PositionAt          *time.Time `json:"position_at"`
	RefreshedAt         time.Time  `json:"refreshed_at"`
}

func (e *SnapshotExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *AttendApiServer) apiSnapshotRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiSnapshotGet)

	return r
}

func (s *AttendApiServer) apiSnapshotGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotStore.Load()
	if err != nil {
		log.Printf("apiSnapshotGet: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrNotFound(fmt.Errorf("no tracker snapshot available")))
		return
	}

	o := &SnapshotExtView{
		UserId:              snap.UserId,
		LocationId:          snap.LocationId,
		Latitude:            snap.Latitude,
		Longitude:           snap.Longitude,
		Accuracy:            snap.Accuracy,
		Distance:            snap.Distance,
		IsWithinGeofence:    snap.IsWithinGeofence,
		IsTracking:          snap.IsTracking,
		LocationReached:     snap.LocationReached,
		TimeInsideGeofence:  snap.TimeInsideGeofence,
		TimeOutsideGeofence: snap.TimeOutsideGeofence,
		AutoStatus:          snap.AutoStatus,
		ErrorCode:           snap.ErrorCode,
		ErrorMessage:        snap.ErrorMessage,
		PositionAt:          snap.PositionAt,
		RefreshedAt:         snap.UpdatedAt,
	}

	// A daemon that stopped publishing is no longer tracking, the same
	// way stale entities age out of a location view.
	if !s.snapshotFresh(snap.UpdatedAt, time.Now()) {
		log.Printf("apiSnapshotGet: snapshot row has timed out")
		o.IsTracking = false
	}

	render.Render(w, r, o)
	return
}
