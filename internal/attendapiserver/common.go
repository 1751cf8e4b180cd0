package attendapiserver

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
)

/* Common */
type HttpErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
}

func (e *HttpErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func (s *AttendApiServer) httpErrUnexpected(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		ErrorText:      "Internal Server Error",
	}
}

func (s *AttendApiServer) httpErrInvalidRequest(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		ErrorText:      err.Error(),
	}
}

func (s *AttendApiServer) httpErrNotFound(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		ErrorText:      "Not Found",
	}
}

func getCtxValueString(ctx context.Context, key string) string {
	ret := ctx.Value(key)
	if ret == nil {
		return ""
	}

	return ret.(string)
}
