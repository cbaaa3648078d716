package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/featherfn/metagate/internal/entity"
)

const (
	defaultRequestTimeout = 65 * time.Second
	maxErrorBodyBytes     = 512
)

// Client issues blocking invocation requests to the action backend.
// Invocations are not idempotent, so the client never retries; transport
// errors become Failure outcomes.
type Client struct {
	hostBase   string
	apiVersion string
	httpClient *http.Client
}

// NewClient constructs a Client for the given backend host base
// (e.g. "https://controller:443") and API version (e.g. "v1").
func NewClient(hostBase, apiVersion string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		hostBase:   strings.TrimRight(hostBase, "/"),
		apiVersion: apiVersion,
		httpClient: httpClient,
	}
}

// Invoke posts body to the named action as a blocking invocation using
// the supplied credentials. actionPath is the package-local path,
// "pkg/action" or "action". The returned error is non-nil only for
// caller mistakes; backend and transport failures surface as Failure
// outcomes.
func (c *Client) Invoke(ctx context.Context, creds entity.AuthKey, namespace, actionPath string, body []byte) (Outcome, error) {
	if c == nil {
		return Outcome{}, errors.New("invoke: client not initialized")
	}
	if !creds.Valid() {
		return Outcome{}, errors.New("invoke: missing credentials")
	}
	namespace = strings.TrimSpace(namespace)
	actionPath = strings.Trim(strings.TrimSpace(actionPath), "/")
	if namespace == "" || actionPath == "" {
		return Outcome{}, errors.New("invoke: empty action path")
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	targetURL := fmt.Sprintf("%s/api/%s/namespaces/%s/actions/%s?blocking=true",
		c.hostBase, c.apiVersion, url.PathEscape(namespace), escapeActionPath(actionPath))

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if errReq != nil {
		return Outcome{}, fmt.Errorf("invoke: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(creds.UUID, creds.Key)

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return Failure(0, errResp.Error()), nil
	}
	defer func() { _ = resp.Body.Close() }()

	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return Failure(resp.StatusCode, errRead.Error()), nil
	}

	return interpretResponse(resp.StatusCode, payload), nil
}

// interpretResponse maps the backend's two-shape response onto outcomes:
// 200 with a record, 202 with an activation id, anything else a failure.
func interpretResponse(statusCode int, payload []byte) Outcome {
	switch statusCode {
	case http.StatusOK:
		if !isJSONObject(payload) {
			return Failure(statusCode, "invoke: activation record is not a json object")
		}
		return Success(payload, activationIDFrom(payload))
	case http.StatusAccepted:
		id := activationIDFrom(payload)
		if id == "" {
			return Failure(statusCode, "invoke: accepted response without activation id")
		}
		return Pending(id)
	default:
		return Failure(statusCode, failureMessage(payload))
	}
}

// activationIDFrom extracts the activationId field, if present.
func activationIDFrom(payload []byte) string {
	var envelope struct {
		ActivationID string `json:"activationId"`
	}
	if errUnmarshal := json.Unmarshal(payload, &envelope); errUnmarshal != nil {
		return ""
	}
	return strings.TrimSpace(envelope.ActivationID)
}

// failureMessage pulls the error field out of a JSON error body, else
// falls back to the truncated raw text.
func failureMessage(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return "invoke: empty error response"
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if errUnmarshal := json.Unmarshal(trimmed, &envelope); errUnmarshal == nil && strings.TrimSpace(envelope.Error) != "" {
		return strings.TrimSpace(envelope.Error)
	}
	if len(trimmed) > maxErrorBodyBytes {
		return string(trimmed[:maxErrorBodyBytes]) + "...(truncated)"
	}
	return string(trimmed)
}

func isJSONObject(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func escapeActionPath(actionPath string) string {
	segments := strings.Split(actionPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
