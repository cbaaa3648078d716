package meta

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/identity"
	"github.com/featherfn/metagate/internal/invoke"
	"github.com/featherfn/metagate/internal/store"
)

// Verbs the meta surface accepts. Anything else at the prefix is 405.
var allowedVerbs = []string{http.MethodGet, http.MethodPost, http.MethodDelete}

// AllowedVerbs returns the meta routing verb allow-list.
func AllowedVerbs() []string {
	out := make([]string, len(allowedVerbs))
	copy(out, allowedVerbs)
	return out
}

// Handler is the HTTP entry for meta routing. One request walks
// resolve, merge, invoke, respond.
type Handler struct {
	resolver        *Resolver
	entities        store.EntityStore
	client          *invoke.Client
	systemCreds     *identity.SystemCredentialSource
	systemNamespace string
	mountPath       string
}

// HandlerConfig carries the Handler's dependencies.
type HandlerConfig struct {
	Resolver        *Resolver
	Entities        store.EntityStore
	Client          *invoke.Client
	SystemCreds     *identity.SystemCredentialSource
	SystemNamespace string
	MountPath       string // Full route prefix, e.g. "/api/v1/meta".
}

// NewHandler constructs a meta routing Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		resolver:        cfg.Resolver,
		entities:        cfg.Entities,
		client:          cfg.Client,
		systemCreds:     cfg.SystemCreds,
		systemNamespace: cfg.SystemNamespace,
		mountPath:       strings.TrimRight(cfg.MountPath, "/"),
	}
}

// Serve handles one meta request.
func (h *Handler) Serve(c *gin.Context) {
	ident, okIdent := callerIdentity(c)
	if !okIdent {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	packageName, residualPath, errPath := h.splitMetaPath(c.Request.URL)
	if errPath != nil {
		RespondResolutionError(c, errPath)
		return
	}

	resolved, errResolve := h.resolver.Resolve(c.Request.Context(), packageName, c.Request.Method)
	if errResolve != nil {
		RespondResolutionError(c, errResolve)
		return
	}

	actionDocID := h.systemNamespace + "/" + packageName + "/" + resolved.ActionName
	action, errAction := h.entities.GetAction(c.Request.Context(), actionDocID)
	if errAction != nil {
		// The package names an action that must exist; a missing document
		// here is a deployment defect, not a client error.
		RespondResolutionError(c, fmt.Errorf("meta: load action %s: %w", actionDocID, errAction))
		return
	}

	rawBody, errRead := io.ReadAll(c.Request.Body)
	if errRead != nil {
		RespondResolutionError(c, fmt.Errorf("meta: read body: %w", errRead))
		return
	}
	body, errBody := ParseBody(c.ContentType(), rawBody)
	if errBody != nil {
		RespondResolutionError(c, errBody)
		return
	}

	payload := BuildPayload(MergeInput{
		PackageParams:   resolved.Parameters(),
		ActionParams:    action.Parameters,
		RawQuery:        c.Request.URL.RawQuery,
		Body:            body,
		Verb:            c.Request.Method,
		ResidualPath:    residualPath,
		CallerNamespace: ident.Namespace,
	})
	encoded, errEncode := payload.MarshalObject()
	if errEncode != nil {
		RespondResolutionError(c, fmt.Errorf("meta: encode payload: %w", errEncode))
		return
	}

	creds, errCreds := h.systemCreds.Get(c.Request.Context())
	if errCreds != nil {
		RespondResolutionError(c, errCreds)
		return
	}

	outcome, errInvoke := h.client.Invoke(c.Request.Context(), creds, h.systemNamespace,
		packageName+"/"+resolved.ActionName, encoded)
	if errInvoke != nil {
		RespondResolutionError(c, errInvoke)
		return
	}
	RespondOutcome(c, outcome)
}

// splitMetaPath carves the escaped request path into the meta-package
// segment and the verbatim residual. Percent-encoded bytes in the
// residual are preserved exactly as sent.
func (h *Handler) splitMetaPath(u *url.URL) (packageName, residualPath string, err error) {
	escaped := u.EscapedPath()
	rest, found := strings.CutPrefix(escaped, h.mountPath)
	if !found {
		return "", "", ErrNotFound
	}
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return "", "", ErrNotFound
	}

	segment := rest
	if idx := strings.Index(rest, "/"); idx >= 0 {
		segment = rest[:idx]
		residualPath = rest[idx:]
	}
	packageName, errUnescape := url.PathUnescape(segment)
	if errUnescape != nil || strings.TrimSpace(packageName) == "" {
		return "", "", ErrNotFound
	}
	return packageName, residualPath, nil
}

// callerIdentity reads the identity resolved by the auth middleware.
func callerIdentity(c *gin.Context) (entity.Identity, bool) {
	v, exists := c.Get("identity")
	if !exists {
		return entity.Identity{}, false
	}
	ident, ok := v.(entity.Identity)
	return ident, ok
}
