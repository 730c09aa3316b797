package v1

import (
	"strconv"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/gin-gonic/gin"
)

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, entity string) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ierr.NewError("invalid id").
			WithHintf("%s ID must be a positive number", entity).
			WithReportableDetails(map[string]any{
				"id": raw,
			}).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

func bindError(err error) error {
	return ierr.WithError(err).
		WithHint("Invalid request format").
		Mark(ierr.ErrValidation)
}
