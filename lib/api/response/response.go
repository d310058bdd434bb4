package response

import (
	"admitgate/lib/clock"
	"admitgate/lib/fault"
	"net/http"

	"github.com/go-chi/render"
)

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Code          string      `json:"code,omitempty"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Fail renders err with the status and code of its fault kind
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := Error(fault.Message(err))
	resp.Code = fault.KindOf(err).String()
	render.Status(r, fault.HTTPStatus(err))
	render.JSON(w, r, resp)
}
