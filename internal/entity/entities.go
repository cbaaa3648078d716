package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Annotation keys understood by the meta routing layer.
const (
	AnnotationMeta = "meta"
	AnnotationFeed = "feed"
)

// Rule statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Package is a stored package document. Meta-routable packages carry
// the meta=true annotation plus at least one per-verb action mapping.
type Package struct {
	Namespace   string      `json:"namespace"`
	Name        string      `json:"name"`
	Version     string      `json:"version,omitempty"`
	Publish     bool        `json:"publish"`
	Parameters  Parameters  `json:"parameters"`
	Annotations Annotations `json:"annotations"`
}

// FullyQualifiedName returns the package's own qualified name.
func (p *Package) FullyQualifiedName() FullyQualifiedName {
	return FullyQualifiedName{Namespace: p.Namespace, Name: p.Name}
}

// IsMeta reports whether the package opted into URL routing.
func (p *Package) IsMeta() bool {
	b, ok := p.Annotations.Bool(AnnotationMeta)
	return ok && b
}

// ActionForVerb returns the action name mapped to the lower-cased verb.
// Only string-valued annotations count as mappings.
func (p *Package) ActionForVerb(verb string) (string, bool) {
	return p.Annotations.Str(strings.ToLower(verb))
}

// Action is a stored action document. Only the fields the controller
// reads are modeled; exec payloads stay opaque.
type Action struct {
	Namespace   string          `json:"namespace"`
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Parameters  Parameters      `json:"parameters"`
	Annotations Annotations     `json:"annotations"`
	Exec        json.RawMessage `json:"exec,omitempty"`
}

// Rule binds a trigger to one action.
type Rule struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	Status string `json:"status"`
}

// Active reports whether the rule participates in fan-out.
func (r Rule) Active() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusActive)
}

// Trigger is a stored trigger document with its rule bindings in
// declaration order.
type Trigger struct {
	Namespace   string      `json:"namespace"`
	Name        string      `json:"name"`
	Version     string      `json:"version,omitempty"`
	Parameters  Parameters  `json:"parameters"`
	Annotations Annotations `json:"annotations"`
	Rules       []Rule      `json:"rules"`
}

// FullyQualifiedName returns the trigger's own qualified name.
func (t *Trigger) FullyQualifiedName() FullyQualifiedName {
	return FullyQualifiedName{Namespace: t.Namespace, Name: t.Name}
}

// ActiveRules filters the bindings down to active ones, keeping order.
func (t *Trigger) ActiveRules() []Rule {
	out := make([]Rule, 0, len(t.Rules))
	for _, rule := range t.Rules {
		if rule.Active() {
			out = append(out, rule)
		}
	}
	return out
}

// UnmarshalJSON accepts rules either as the stored object form
// {"ruleName": {"action": ..., "status": ...}} or as an ordered array of
// named rules. The object form is re-keyed into declaration order using
// the raw document.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	type alias Trigger
	aux := struct {
		*alias
		Rules json.RawMessage `json:"rules"`
	}{alias: (*alias)(t)}
	if errUnmarshal := json.Unmarshal(data, &aux); errUnmarshal != nil {
		return errUnmarshal
	}
	trimmed := strings.TrimSpace(string(aux.Rules))
	if trimmed == "" || trimmed == "null" {
		t.Rules = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var rules []Rule
		if errUnmarshal := json.Unmarshal(aux.Rules, &rules); errUnmarshal != nil {
			return fmt.Errorf("entity: trigger rules: %w", errUnmarshal)
		}
		t.Rules = rules
		return nil
	}

	ordered, errParse := ParseObject(aux.Rules)
	if errParse != nil {
		return fmt.Errorf("entity: trigger rules: %w", errParse)
	}
	rules := make([]Rule, 0, len(ordered))
	for _, kv := range ordered {
		body, okBody := kv.Value.(map[string]any)
		if !okBody {
			return fmt.Errorf("entity: trigger rule %q is not an object", kv.Key)
		}
		rule := Rule{Name: kv.Key}
		if action, okAction := body["action"].(string); okAction {
			rule.Action = action
		}
		if status, okStatus := body["status"].(string); okStatus {
			rule.Status = status
		}
		rules = append(rules, rule)
	}
	t.Rules = rules
	return nil
}
