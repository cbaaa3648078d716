package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/models"
	"github.com/featherfn/metagate/internal/store"
)

// Log levels carried in activation log lines.
const (
	levelDebug = "DEBUG"
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
)

// logTimeLayout renders UTC timestamps with millisecond precision.
const logTimeLayout = "2006-01-02T15:04:05.000Z"

// activationDocVersion is the stored document schema version.
const activationDocVersion = "0.0.1"

// FormatLogLine renders one activation log line:
//
//	[timestamp] [LEVEL] [trigger] [rule] [action] message
func FormatLogLine(ts time.Time, level, triggerName, ruleName, actionName, message string) string {
	return fmt.Sprintf("[%s] [%s] [%s] [%s] [%s] %s",
		ts.UTC().Format(logTimeLayout), level, triggerName, ruleName, actionName, message)
}

// NewActivationID generates the token reported to callers and stored
// with the activation record.
func NewActivationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Service fires triggers: it hands the caller an activation id up front,
// fans out over the active rules in the background, and persists exactly
// one activation record once every outcome is known.
type Service struct {
	fanout      *Fanout
	activations store.ActivationStore
}

// NewService constructs a trigger Service.
func NewService(fanout *Fanout, activations store.ActivationStore) *Service {
	return &Service{fanout: fanout, activations: activations}
}

// Fire starts the fan-out for a loaded trigger and returns the
// activation id immediately. The id is generated before any rule action
// is invoked and is the one the stored record carries, even though the
// fan-out itself runs detached from the request.
func (s *Service) Fire(ident entity.Identity, t *entity.Trigger, payload entity.Parameters) string {
	activationID := NewActivationID()
	start := time.Now().UTC()

	go s.complete(context.Background(), ident, t, payload, activationID, start)

	return activationID
}

func (s *Service) complete(ctx context.Context, ident entity.Identity, t *entity.Trigger, payload entity.Parameters, activationID string, start time.Time) {
	outcomes := s.fanout.Run(ctx, ident, t, payload)
	end := time.Now().UTC()

	lines := make([]string, 0, len(outcomes))
	succeeded := 0
	for _, out := range outcomes {
		if out.Level == levelInfo {
			succeeded++
		}
		lines = append(lines, FormatLogLine(out.CompletedAt, out.Level, t.Name, out.Rule.Name, out.Rule.Action, out.Message))
	}

	logsJSON, errLogs := json.Marshal(lines)
	if errLogs != nil {
		logsJSON = []byte("[]")
	}
	response, errResponse := json.Marshal(map[string]any{
		"status":         "success",
		"rulesActivated": len(outcomes),
		"rulesSucceeded": succeeded,
	})
	if errResponse != nil {
		response = nil
	}

	record := &models.TriggerActivation{
		ActivationID: activationID,
		Namespace:    ident.Namespace,
		EntityName:   t.Name,
		Subject:      ident.Subject,
		Start:        start,
		End:          end,
		Version:      activationDocVersion,
		DurationMS:   end.Sub(start).Milliseconds(),
		Response:     response,
		Logs:         logsJSON,
	}

	// One put, no retries: the activation id was already reported to the
	// caller and a retry could write duplicates.
	if errPut := s.activations.Put(ctx, record); errPut != nil {
		log.WithError(errPut).Errorf("trigger %s: failed to persist activation %s", t.FullyQualifiedName(), activationID)
	}
}
