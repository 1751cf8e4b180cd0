package attendapiserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
	"github.com/Kalpa111334/Hr-Management/internal/models"
)

// AttendanceExtView represents the external view of an attendance record
type AttendanceExtView struct {
	Id               string     `json:"id"`
	UserId           string     `json:"user_id"`
	LocationId       string     `json:"location_id"`
	CheckInTime      *time.Time `json:"check_in_time"`
	CheckOutTime     *time.Time `json:"check_out_time"`
	Status           string     `json:"status"`
	IsAutoEnabled    bool       `json:"is_auto_enabled"`
	AutoStatus       string     `json:"auto_status,omitempty"`
	AutoCheckInTime  *time.Time `json:"auto_check_in_time,omitempty"`
	AutoCheckOutTime *time.Time `json:"auto_check_out_time,omitempty"`
	AutoLocation     string     `json:"auto_location,omitempty"`
}

func (e *AttendanceExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func attendanceView(rec *models.AttendanceRecord) *AttendanceExtView {
	return &AttendanceExtView{
		Id:               rec.Id,
		UserId:           rec.UserId,
		LocationId:       rec.LocationId,
		CheckInTime:      rec.CheckInTime,
		CheckOutTime:     rec.CheckOutTime,
		Status:           rec.Status,
		IsAutoEnabled:    rec.IsAutoEnabled,
		AutoStatus:       rec.AutoStatus,
		AutoCheckInTime:  rec.AutoCheckInTime,
		AutoCheckOutTime: rec.AutoCheckOutTime,
		AutoLocation:     rec.AutoLocation,
	}
}

// CheckInRequest is the manual check-in payload.
type CheckInRequest struct {
	UserId        string `json:"user_id"`
	LocationId    string `json:"location_id"`
	IsAutoEnabled bool   `json:"is_auto_enabled"`
}

func (req *CheckInRequest) Bind(r *http.Request) error {
	if req.UserId == "" || req.LocationId == "" {
		return fmt.Errorf("user_id and location_id are required")
	}

	return nil
}

func (s *AttendApiServer) apiAttendanceIdCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "recordid")
		if key == "" {
			err := fmt.Errorf("missing recordid param")
			render.Render(w, r, s.httpErrInvalidRequest(err))
			return
		}

		ctx := context.WithValue(r.Context(), "recordid", key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *AttendApiServer) apiAttendanceRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiAttendanceGetAll)
	r.Post("/", s.apiAttendanceCheckIn)
	r.Route("/{recordid}", func(r chi.Router) {
		r.Use(s.apiAttendanceIdCtx)
		r.Post("/checkout", s.apiAttendanceCheckOut)
	})

	return r
}

func (s *AttendApiServer) apiAttendanceGetAll(w http.ResponseWriter, r *http.Request) {
	filter := attendance.Filter{
		UserId: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
	}

	recs, err := s.attendanceStore.FindMany(filter)
	if err != nil {
		log.Printf("apiAttendanceGetAll: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for i := range recs {
		outs = append(outs, attendanceView(&recs[i]))
	}

	render.RenderList(w, r, outs)
	return
}

func (s *AttendApiServer) apiAttendanceCheckIn(w http.ResponseWriter, r *http.Request) {
	req := &CheckInRequest{}
	err := render.Bind(r, req)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(err))
		return
	}

	_, err = s.locationStore.FindById(req.LocationId)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("unknown location %s", req.LocationId)))
		return
	}

	// One open record per user.
	open, err := s.attendanceStore.FindMany(attendance.Filter{
		UserId: req.UserId,
		Status: models.StatusCheckedIn,
	})
	if err != nil {
		log.Printf("apiAttendanceCheckIn: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}
	if len(open) > 0 {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("already checked in")))
		return
	}

	now := time.Now()
	autoStatus := ""
	if req.IsAutoEnabled {
		autoStatus = models.StatusCheckedIn
	}
	rec := &models.AttendanceRecord{
		Id:            uuid.NewString(),
		UserId:        req.UserId,
		LocationId:    req.LocationId,
		CheckInTime:   &now,
		Status:        models.StatusCheckedIn,
		IsAutoEnabled: req.IsAutoEnabled,
		AutoStatus:    autoStatus,
	}

	err = s.attendanceStore.Create(rec)
	if err != nil {
		log.Printf("apiAttendanceCheckIn: Failed to create record (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.Render(w, r, attendanceView(rec))
	return
}

// apiAttendanceCheckOut validates the manual check-out preconditions:
// the record must be an open check-in (not pending or rejected), at
// least five minutes of real time must have passed since check-in, and
// the tracked device must currently be outside the geofence.
func (s *AttendApiServer) apiAttendanceCheckOut(w http.ResponseWriter, r *http.Request) {
	id := getCtxValueString(r.Context(), "recordid")

	rec, err := s.attendanceStore.FindById(id)
	if err != nil {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}

	if rec.Status == models.StatusPending || rec.Status == models.StatusRejected {
		err = fmt.Errorf("cannot checkout from %s check-in", strings.ToLower(rec.Status))
		render.Render(w, r, s.httpErrInvalidRequest(err))
		return
	}
	if rec.Status != models.StatusCheckedIn || rec.CheckInTime == nil {
		render.Render(w, r, s.httpErrInvalidRequest(attendance.ErrNoActiveCheckIn))
		return
	}

	now := time.Now()
	if now.Sub(*rec.CheckInTime) < attendance.ManualCheckOutMinimum {
		render.Render(w, r, s.httpErrInvalidRequest(attendance.ErrMinTimeNotMet))
		return
	}

	snap, snapErr := s.snapshotStore.Load()
	if snapErr == nil && s.snapshotFresh(snap.UpdatedAt, now) && snap.IsTracking && snap.IsWithinGeofence {
		render.Render(w, r, s.httpErrInvalidRequest(attendance.ErrStillInsideGeofence))
		return
	}

	patch := map[string]interface{}{
		"status":         models.StatusCheckedOut,
		"check_out_time": now,
	}
	err = s.attendanceStore.Update(rec.Id, patch)
	if err != nil {
		log.Printf("apiAttendanceCheckOut: Failed to update record (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	rec, err = s.attendanceStore.FindById(id)
	if err != nil {
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Render(w, r, attendanceView(rec))
	return
}

// snapshotFresh checks the tracker snapshot row against the configured
// timeout, the same way stale entities age out of the location view.
func (s *AttendApiServer) snapshotFresh(updatedAt time.Time, now time.Time) bool {
	timeout := s.cfg.Tracking.SnapshotTimeout
	if timeout <= 0 {
		timeout = 120
	}

	return now.Before(updatedAt.Add(time.Duration(timeout) * time.Second))
}
