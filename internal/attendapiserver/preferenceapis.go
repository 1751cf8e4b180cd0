package attendapiserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"gorm.io/gorm"
)

// PreferenceExtView represents the external view of a user preference
type PreferenceExtView struct {
	UserId                string `json:"user_id"`
	AutoAttendanceEnabled bool   `json:"auto_attendance_enabled"`
}

func (e *PreferenceExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// PreferenceRequest toggles the auto-attendance preference.
type PreferenceRequest struct {
	AutoAttendanceEnabled bool `json:"auto_attendance_enabled"`
}

func (req *PreferenceRequest) Bind(r *http.Request) error {
	return nil
}

func (s *AttendApiServer) apiPreferenceIdCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "userid")
		if key == "" {
			err := fmt.Errorf("missing userid param")
			render.Render(w, r, s.httpErrInvalidRequest(err))
			return
		}

		ctx := context.WithValue(r.Context(), "userid", key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *AttendApiServer) apiPreferenceRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/{userid}", func(r chi.Router) {
		r.Use(s.apiPreferenceIdCtx)
		r.Get("/", s.apiPreferenceGet)
		r.Put("/", s.apiPreferencePut)
	})

	return r
}

func (s *AttendApiServer) apiPreferenceGet(w http.ResponseWriter, r *http.Request) {
	userId := getCtxValueString(r.Context(), "userid")

	pref, err := s.prefStore.Find(userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Unset preference reads as disabled.
			render.Render(w, r, &PreferenceExtView{UserId: userId})
			return
		}

		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Render(w, r, &PreferenceExtView{
		UserId:                pref.UserId,
		AutoAttendanceEnabled: pref.AutoAttendanceEnabled,
	})
	return
}

func (s *AttendApiServer) apiPreferencePut(w http.ResponseWriter, r *http.Request) {
	userId := getCtxValueString(r.Context(), "userid")

	req := &PreferenceRequest{}
	err := render.Bind(r, req)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(err))
		return
	}

	err = s.prefStore.Update(userId, req.AutoAttendanceEnabled)
	if err != nil {
		render.Render(w, r, s.httpErrUnexpected(err))
		return
	}

	render.Render(w, r, &PreferenceExtView{
		UserId:                userId,
		AutoAttendanceEnabled: req.AutoAttendanceEnabled,
	})
	return
}
