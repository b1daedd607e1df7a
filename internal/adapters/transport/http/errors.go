package http

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
)

// writeError maps the domain taxonomy onto status codes and renders the
// uniform {message[,stack]} body. Internal details never leak in
// production.
func writeError(c *gin.Context, production bool, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case customErrors.IsInvalidArgument(err):
		status = http.StatusBadRequest
		message = err.Error()
	case customErrors.IsInvalidCredentials(err):
		status = http.StatusUnauthorized
		message = "invalid credentials"
	case customErrors.IsInvalidToken(err):
		status = http.StatusUnauthorized
		message = "invalid token"
	case customErrors.IsAlreadyExists(err):
		status = http.StatusConflict
		message = err.Error()
	case customErrors.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	}

	body := gin.H{"message": message}
	if !production {
		body["error"] = err.Error()
		body["stack"] = string(debug.Stack())
	}

	c.AbortWithStatusJSON(status, body)
}
