package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/common"
)

// statusForError translates service sentinel errors into the client-visible
// status code and message. "Exists but not yours" deliberately stays 403
// rather than 404, preserving the public API's behavior.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, "Please fill all the fields"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "Username Already exists"
	case errors.Is(err, common.ErrorSelfShare):
		return http.StatusConflict, "The requested resource is already owned by the user"
	case errors.Is(err, common.ErrorAlreadyShared):
		return http.StatusConflict, "The requested resource is already shared with that account"
	case errors.Is(err, common.ErrorNotShared):
		return http.StatusConflict, "The requested resource is already not shared with that account"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "The requested resource cannot be accessed by the user"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Could not validate credentials"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	code, msg := statusForError(err)
	c.AbortWithStatusJSON(code, gin.H{"detail": msg})
}
