package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
)

// RespondError maps a domain error to its HTTP status and writes a JSON
// error body. Unrecognized errors become 500.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case apperrors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case apperrors.Is(err, apperrors.ErrUpstream):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// UserID resolves the calling principal's id. The API gateway authenticates
// the request and forwards the subject in X-User-Id; the header is trusted
// here because services are not reachable from outside the mesh.
func UserID(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}
