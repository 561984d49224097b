package handler

import (
	"log"
	"net/http"

	"enquiry-backend/pkg/apperr"
	"enquiry-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail maps a service error onto the wire. Server-side causes are logged and
// never echoed to the client.
func fail(c *gin.Context, err error) {
	code := apperr.StatusCode(err)
	if code == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, response.Error(code, apperr.ClientMessage(err)))
}
