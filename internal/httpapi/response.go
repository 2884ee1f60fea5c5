/*******************************************************************************
* File name: response.go
*
* Description: the envelope every JSON response is wrapped in, and the
* small set of writer helpers handlers call.
*******************************************************************************/

package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for every JSON body this API returns.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func writeOK(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{Status: "ok", Timestamp: time.Now(), Data: data})
}

func writeError(c *gin.Context, code int, err error) {
	c.JSON(code, Response{Status: "error", Timestamp: time.Now(), Error: err.Error()})
}
