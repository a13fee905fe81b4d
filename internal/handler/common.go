package handler

import (
	"net/http"

	"assetledger/internal/apperror"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithError maps a service error onto the wire via its kind
func abortWithError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// callerID returns the authenticated user's id set by the auth middleware
func callerID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
