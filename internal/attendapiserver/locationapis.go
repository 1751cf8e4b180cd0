package attendapiserver

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

// LocationExtView represents the external view of an office location
type LocationExtView struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

func (e *LocationExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *AttendApiServer) apiLocationIdCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "locationid")
		if key == "" {
			err := fmt.Errorf("missing locationid param")
			render.Render(w, r, s.httpErrInvalidRequest(err))
			return
		}

		ctx := context.WithValue(r.Context(), "locationid", key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *AttendApiServer) apiLocationRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiLocationGetAll)
	r.Route("/{locationid}", func(r chi.Router) {
		r.Use(s.apiLocationIdCtx)
		r.Get("/", s.apiLocationGetOne)
	})

	return r
}

func (s *AttendApiServer) apiLocationGetAll(w http.ResponseWriter, r *http.Request) {
	locs, err := s.locationStore.FindAll()
	if err != nil {
		log.Printf("apiLocationGetAll: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for _, loc := range locs {
		o := &LocationExtView{
			Id:        loc.Id,
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Radius:    loc.Radius,
		}

		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
	return
}

func (s *AttendApiServer) apiLocationGetOne(w http.ResponseWriter, r *http.Request) {
	id := getCtxValueString(r.Context(), "locationid")

	loc, err := s.locationStore.FindById(id)
	if err != nil {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}

	o := &LocationExtView{
		Id:        loc.Id,
		Name:      loc.Name,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Radius:    loc.Radius,
	}

	render.Render(w, r, o)
	return
}
