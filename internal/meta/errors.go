package meta

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/invoke"
)

// RespondOutcome writes the terminal response for an invocation outcome:
// 200 with the record, 202 with the numeric continuation code, 500 with
// the error and code.
func RespondOutcome(c *gin.Context, outcome invoke.Outcome) {
	switch outcome.Kind {
	case invoke.OutcomeSuccess:
		c.Data(http.StatusOK, "application/json", outcome.Record)
	case invoke.OutcomePending:
		c.JSON(http.StatusAccepted, gin.H{"code": invoke.ActivationCode(outcome.ActivationID)})
	default:
		token := outcome.ActivationID
		if token == "" {
			token = outcome.Cause.Message
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": outcome.Cause.Message,
			"code":  invoke.ActivationCode(token),
		})
	}
}

// RespondResolutionError maps resolution and merge failures onto HTTP
// statuses. Unmapped failures become a generic 500; nothing is swallowed.
func RespondResolutionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, ErrNotMeta), errors.Is(err, ErrVerbNotMapped):
		c.Status(http.StatusMethodNotAllowed)
	case errors.Is(err, ErrUnsupportedMedia):
		c.String(http.StatusUnsupportedMediaType, "request body must be a JSON object (application/json)")
	default:
		log.WithError(err).Error("meta request failed")
		c.Status(http.StatusInternalServerError)
	}
}
