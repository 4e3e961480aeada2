package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/marketplace/errors"
)

// JSON writes the standard envelope. err may be a plain error or an *errs.Error;
// field-level validation detail is rendered as a map under "errors".
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	var errData interface{} = ""
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) && len(e.Fields) > 0 {
			errData = e.Fields
		} else {
			errData = err.Error()
		}
		if message == "" {
			message = err.Error()
		}
	}

	c.JSON(status, gin.H{
		"message":   message,
		"data":      data,
		"errors":    errData,
		"status":    http.StatusText(status),
		"timestamp": time.Now().Format(time.RFC850),
	})
}
