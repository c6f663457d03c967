package httpx

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	"github.com/KOMKZ/go-yogan-auth/validator"
	"github.com/gin-gonic/gin"
)

// HandlerFunc is a typed handler; Wrap does binding, validation and rendering
type HandlerFunc[Req any, Resp any] func(c *gin.Context, req *Req) (*Resp, error)

func Wrap[Req any, Resp any](handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return WrapStatus(http.StatusOK, handler)
}

// WrapStatus is Wrap with a custom success status, e.g. 201
func WrapStatus[Req any, Resp any](status int, handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := Parse(c, &req); err != nil {
			HandleError(c, errcode.ErrBadRequest.Wrap(err))
			return
		}

		if v, ok := any(&req).(validator.Validatable); ok {
			if err := validator.ValidateRequest(v); err != nil {
				HandleError(c, err)
				return
			}
		}

		resp, err := handler(c, &req)
		if err != nil {
			HandleError(c, err)
			return
		}
		JSON(c, status, resp)
	}
}
