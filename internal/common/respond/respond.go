// Package respond implements the uniform JSON envelope returned by
// every JokeHub endpoint. The envelope shape and message strings are a
// compatibility contract with existing API clients.
package respond

import (
	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/common/errors"
)

// Envelope is the response body shared by all endpoints.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes a successful envelope with the given status code.
func Success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail writes a failed envelope with the given status code.
func Fail(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Data:    data,
	})
}

// Error maps an application error onto the envelope. Non-AppError
// values are reported as a generic internal error so storage failures
// never leak detail to clients.
func Error(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)

	msg := appErr.Message
	if appErr.Code == errors.ErrInternal || appErr.Code == errors.ErrDatabase {
		msg = "Internal server error"
	}

	c.JSON(appErr.StatusCode, Envelope{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}
