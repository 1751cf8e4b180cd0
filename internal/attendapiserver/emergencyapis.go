package attendapiserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
)

// EmergencyExtView represents the external view of the emergency state
type EmergencyExtView struct {
	Active    bool       `json:"active"`
	Latitude  float64    `json:"latitude,omitempty"`
	Longitude float64    `json:"longitude,omitempty"`
	Radius    float64    `json:"radius,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

func (e *EmergencyExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func emergencyView(state attendance.EmergencyState) *EmergencyExtView {
	o := &EmergencyExtView{Active: state.Active}
	if state.Active {
		o.Latitude = state.Location.Latitude
		o.Longitude = state.Location.Longitude
		o.Radius = state.Location.Radius
		startedAt := state.StartedAt
		o.StartedAt = &startedAt
	}

	return o
}

// ActivateRequest anchors emergency mode at the reported position.
type ActivateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (req *ActivateRequest) Bind(r *http.Request) error {
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return fmt.Errorf("coordinates out of range")
	}

	return nil
}

func (s *AttendApiServer) apiEmergencyRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiEmergencyGet)
	r.Post("/activate", s.apiEmergencyActivate)
	r.Post("/deactivate", s.apiEmergencyDeactivate)

	return r
}

func (s *AttendApiServer) apiEmergencyGet(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, emergencyView(s.emergency.State()))
	return
}

func (s *AttendApiServer) apiEmergencyActivate(w http.ResponseWriter, r *http.Request) {
	req := &ActivateRequest{}
	err := render.Bind(r, req)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(err))
		return
	}

	err = s.emergency.Activate(req.Latitude, req.Longitude, time.Now())
	if err != nil {
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Render(w, r, emergencyView(s.emergency.State()))
	return
}

func (s *AttendApiServer) apiEmergencyDeactivate(w http.ResponseWriter, r *http.Request) {
	err := s.emergency.Deactivate()
	if err != nil {
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Render(w, r, emergencyView(s.emergency.State()))
	return
}
