package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/meta"
	"github.com/featherfn/metagate/internal/store"
	"github.com/featherfn/metagate/internal/trigger"
)

// TriggerHandler fires triggers and serves stored trigger activations.
type TriggerHandler struct {
	entities    store.EntityStore
	activations store.ActivationStore
	service     *trigger.Service
}

// NewTriggerHandler constructs a TriggerHandler.
func NewTriggerHandler(entities store.EntityStore, activations store.ActivationStore, service *trigger.Service) *TriggerHandler {
	return &TriggerHandler{entities: entities, activations: activations, service: service}
}

// Fire handles POST /api/:version/namespaces/:namespace/triggers/:name.
// It responds 202 with the activation id as soon as the trigger document
// is loaded; rule fan-out continues in the background.
func (h *TriggerHandler) Fire(c *gin.Context) {
	ident, okIdent := identityFrom(c)
	if !okIdent {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	namespace := c.Param("namespace")
	name := c.Param("name")
	docID := namespace + "/" + name
	trig, errGet := h.entities.GetTrigger(c.Request.Context(), docID)
	if errGet != nil {
		if errors.Is(errGet, store.ErrNoDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trigger not found"})
			return
		}
		log.WithError(errGet).Errorf("fire trigger: load %s failed", docID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "entity store error"})
		return
	}

	rawBody, errRead := io.ReadAll(c.Request.Body)
	if errRead != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read body failed"})
		return
	}
	var payload entity.Parameters
	if len(rawBody) > 0 {
		parsed, errParse := meta.ParseBody(c.ContentType(), rawBody)
		if errParse != nil {
			c.String(http.StatusUnsupportedMediaType, "trigger payload must be a JSON object (application/json)")
			return
		}
		payload = parsed
	}

	activationID := h.service.Fire(ident, trig, payload)
	log.Infof("trigger %s fired by %s (activation %s, transaction %s)",
		trig.FullyQualifiedName(), ident.Subject, activationID, c.GetString(ContextTransactionID))
	c.JSON(http.StatusAccepted, gin.H{"activationId": activationID})
}

// GetActivation handles GET /api/:version/namespaces/:namespace/activations/:id.
func (h *TriggerHandler) GetActivation(c *gin.Context) {
	if _, okIdent := identityFrom(c); !okIdent {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	record, errGet := h.activations.Get(c.Request.Context(), c.Param("namespace"), c.Param("id"))
	if errGet != nil {
		if errors.Is(errGet, store.ErrNoDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activation not found"})
			return
		}
		log.WithError(errGet).Error("get activation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "activation store error"})
		return
	}

	var logs []string
	if errLogs := json.Unmarshal(record.Logs, &logs); errLogs != nil {
		logs = nil
	}
	var response any
	if len(record.Response) > 0 {
		if errResponse := json.Unmarshal(record.Response, &response); errResponse != nil {
			response = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"activationId": record.ActivationID,
		"namespace":    record.Namespace,
		"name":         record.EntityName,
		"subject":      record.Subject,
		"version":      record.Version,
		"start":        record.Start.UTC(),
		"end":          record.End.UTC(),
		"duration":     record.DurationMS,
		"response":     response,
		"logs":         logs,
	})
}

func identityFrom(c *gin.Context) (entity.Identity, bool) {
	v, exists := c.Get(ContextIdentity)
	if !exists {
		return entity.Identity{}, false
	}
	ident, ok := v.(entity.Identity)
	return ident, ok
}
