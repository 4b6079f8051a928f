package server

import (
	stderrors "errors"
	"net/http"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/users"
	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy to HTTP responses. Fatal errors
// are marked distinctly so operators can tell a recovered restore
// failure from one that needs intervention.
func (s *Server) respondError(c *gin.Context, err error) {
	if stderrors.Is(err, users.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	message := err.Error()
	var e *gverrors.Error
	if stderrors.As(err, &e) {
		message = e.Message
	}

	switch gverrors.KindOf(err) {
	case gverrors.KindAuthorization:
		c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	case gverrors.KindConfiguration:
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
	case gverrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": message})
	case gverrors.KindRestore:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "fatal": false})
	case gverrors.KindInternal:
		s.log.Error("Fatal error surfaced to API", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "fatal": true})
	default:
		s.log.Error("Unhandled error in API", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
