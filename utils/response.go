package utils

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is a status-line-plus-body reply. A zero Status means 200.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// SendResponse writes headers, status and body in that order. The header is
// flushed even when Body is empty so gin never substitutes a default body.
func SendResponse(c *gin.Context, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	for key, value := range resp.Headers {
		c.Header(key, value)
	}

	c.Status(status)
	c.Writer.WriteHeaderNow()
	if len(resp.Body) > 0 {
		_, _ = c.Writer.Write(resp.Body)
	}
	c.Abort()
}

// SendStatus replies with an empty body.
func SendStatus(c *gin.Context, status int) {
	SendResponse(c, Response{Status: status})
}

// SendJSON encodes body before touching the response, so an encoding error
// leaves the response unwritten.
func SendJSON(c *gin.Context, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	SendResponse(c, Response{
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: data,
	})
	return nil
}
