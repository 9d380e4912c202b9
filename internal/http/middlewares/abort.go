package middlewares

import (
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

func abortJSON(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": reqID,
		},
	})
}

func abortErr(c *gin.Context, err error) {
	code, message := "internal_error", "Something went wrong, please try again."
	if e, ok := apperr.As(err); ok {
		code, message = e.Code, e.Message
	}
	abortJSON(c, apperr.HTTPStatus(err), code, message)
}
