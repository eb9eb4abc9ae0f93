package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

// respondError translates ledger errors into HTTP status codes. Unknown
// errors are logged and surfaced as a generic 500.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, core.ErrDuplicateName),
		errors.Is(err, core.ErrAccountInUse),
		errors.Is(err, core.ErrCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, core.ErrSameAccount),
		errors.Is(err, core.ErrTransferImmutable),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrDescriptionTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		s.logger.Error("request failed",
			"request_id", c.GetString("request_id"),
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
