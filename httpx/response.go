package httpx

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every JSON reply
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

func OkJson(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Code: 0, Msg: "success", Data: data})
}

func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Code: errcode.ErrNotFound.Code(),
			Msg:  "route not found: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	}
}

func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, Response{
			Code: http.StatusMethodNotAllowed,
			Msg:  "method not allowed: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	}
}

// HandleError renders err. A LayeredError renders its own code, message and
// status; its cause stays in the log. Anything else is a 500 with a generic
// message so internal details never reach the client.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	ctx := c.Request.Context()
	cfg := getErrorLoggingConfig(c)

	var layered *errcode.LayeredError
	if !errors.As(err, &layered) {
		if cfg.Enable {
			logger.ErrorCtx(ctx, "httpx", "unhandled error", zap.Error(err))
		}
		layered = errcode.ErrInternal
		c.AbortWithStatusJSON(layered.HTTPStatus(), Response{Code: layered.Code(), Msg: layered.Message()})
		return
	}

	if cfg.Enable && !cfg.IgnoreStatusMap[layered.HTTPStatus()] {
		fields := []zap.Field{
			zap.Int("error_code", layered.Code()),
			zap.String("error_msg", layered.Message()),
		}
		if cfg.FullErrorChain {
			fields = append(fields, zap.String("error_chain", layered.String()))
		}
		switch cfg.LogLevel {
		case "warn":
			logger.WarnCtx(ctx, "httpx", "request failed", fields...)
		case "info":
			logger.InfoCtx(ctx, "httpx", "request failed", fields...)
		default:
			logger.ErrorCtx(ctx, "httpx", "request failed", fields...)
		}
	}

	c.AbortWithStatusJSON(layered.HTTPStatus(), Response{
		Code: layered.Code(),
		Msg:  layered.Message(),
		Data: layered.Data(),
	})
}
