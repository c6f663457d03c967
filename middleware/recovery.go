package middleware

import (
	"runtime/debug"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	"github.com/KOMKZ/go-yogan-auth/httpx"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery logs a panic with its stack and answers with a generic 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorCtx(c.Request.Context(), "gin-error", "panic recovered",
					zap.Any("error", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
					zap.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(errcode.ErrInternal.HTTPStatus(), httpx.Response{
					Code: errcode.ErrInternal.Code(),
					Msg:  errcode.ErrInternal.Message(),
				})
			}
		}()
		c.Next()
	}
}
