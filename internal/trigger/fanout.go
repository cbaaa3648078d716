package trigger

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/invoke"
)

const maxConcurrentInvocations = 8

// RuleOutcome is the classified result of one rule's action invocation.
type RuleOutcome struct {
	Rule         entity.Rule
	Level        string // INFO or ERROR.
	Message      string
	ActivationID string
	CompletedAt  time.Time
}

// Fanout invokes every active rule's action in parallel when a trigger
// fires. Invocations run under the firing caller's credentials, not the
// system identity, and one rule's failure never cancels the others.
type Fanout struct {
	client *invoke.Client
}

// NewFanout constructs a Fanout over the given activation client.
func NewFanout(client *invoke.Client) *Fanout {
	return &Fanout{client: client}
}

// Run merges the trigger parameters with the firing payload (payload
// overrides) and posts the result to every active rule's action.
// Outcomes come back in rule declaration order regardless of completion
// order.
func (f *Fanout) Run(ctx context.Context, ident entity.Identity, t *entity.Trigger, payload entity.Parameters) []RuleOutcome {
	rules := t.ActiveRules()
	if len(rules) == 0 {
		return nil
	}

	merged := t.Parameters.Merge(payload)
	body, errEncode := merged.MarshalObject()
	if errEncode != nil {
		body = []byte("{}")
	}

	outcomes := make([]RuleOutcome, len(rules))
	sem := make(chan struct{}, maxConcurrentInvocations)
	var wg sync.WaitGroup

	for i, rule := range rules {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, rule entity.Rule) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = f.invokeRule(ctx, ident, rule, body)
		}(i, rule)
	}
	wg.Wait()

	return outcomes
}

func (f *Fanout) invokeRule(ctx context.Context, ident entity.Identity, rule entity.Rule, body []byte) RuleOutcome {
	out := RuleOutcome{Rule: rule}

	fqn, errParse := entity.ParseQualifiedName(rule.Action, ident.Namespace)
	if errParse != nil {
		out.Level = levelError
		out.Message = fmt.Sprintf("rule %s names a malformed action %q", rule.Name, rule.Action)
		out.CompletedAt = time.Now().UTC()
		return out
	}

	outcome, errInvoke := f.client.Invoke(ctx, ident.AuthKey, fqn.Namespace, fqn.PathName(), body)
	out.CompletedAt = time.Now().UTC()
	if errInvoke != nil {
		out.Level = levelError
		out.Message = errInvoke.Error()
		return out
	}

	switch outcome.Kind {
	case invoke.OutcomeSuccess, invoke.OutcomePending:
		out.Level = levelInfo
		out.ActivationID = outcome.ActivationID
		out.Message = fmt.Sprintf("posted trigger payload to %s (activation %s)", fqn, outcome.ActivationID)
	default:
		out.Level = levelError
		if outcome.Cause.StatusCode == http.StatusNotFound {
			out.Message = fmt.Sprintf("action %s not found", fqn)
		} else {
			out.Message = fmt.Sprintf("failed to invoke %s: %s", fqn, outcome.Cause.Message)
		}
	}
	return out
}
