package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/store"
)

// Resolution failures. The HTTP layer maps these onto the response
// status: NotFound to 404, NotMeta and VerbNotMapped to 405.
var (
	// ErrNotFound indicates a request with no meta-package segment.
	ErrNotFound = errors.New("meta: not found")
	// ErrNotMeta indicates a package that is missing or did not opt into routing.
	ErrNotMeta = errors.New("meta: package is not meta-routable")
	// ErrVerbNotMapped indicates a meta package with no mapping for the verb.
	ErrVerbNotMapped = errors.New("meta: verb not mapped")
)

// ResolvedAction is the outcome of package resolution: the package
// document, the verb-mapped action name, and the package defaults.
type ResolvedAction struct {
	Package    *entity.Package
	ActionName string
}

// Parameters returns the package default parameters.
func (r *ResolvedAction) Parameters() entity.Parameters {
	if r == nil || r.Package == nil {
		return nil
	}
	return r.Package.Parameters
}

// Resolver maps meta-package names and verbs to system-namespace actions.
type Resolver struct {
	entities        store.EntityStore
	systemNamespace string
}

// NewResolver constructs a Resolver rooted at the system namespace.
func NewResolver(entities store.EntityStore, systemNamespace string) *Resolver {
	return &Resolver{entities: entities, systemNamespace: systemNamespace}
}

// Resolve loads the named meta package and returns the action mapped to
// verb. A public meta package is still served but logged at WARN level.
func (r *Resolver) Resolve(ctx context.Context, packageName, verb string) (*ResolvedAction, error) {
	if r == nil || r.entities == nil {
		return nil, errors.New("meta: resolver not initialized")
	}
	packageName = strings.TrimSpace(packageName)
	if packageName == "" {
		return nil, ErrNotFound
	}

	docID := r.systemNamespace + "/" + packageName
	pkg, errGet := r.entities.GetPackage(ctx, docID)
	if errGet != nil {
		if errors.Is(errGet, store.ErrNoDocument) {
			return nil, ErrNotMeta
		}
		return nil, fmt.Errorf("meta: load package %s: %w", docID, errGet)
	}

	if !pkg.IsMeta() {
		return nil, ErrNotMeta
	}
	actionName, okVerb := pkg.ActionForVerb(verb)
	if !okVerb || strings.TrimSpace(actionName) == "" {
		return nil, ErrVerbNotMapped
	}

	if pkg.Publish {
		log.Warnf("meta package %s is public", pkg.FullyQualifiedName())
	}

	return &ResolvedAction{Package: pkg, ActionName: actionName}, nil
}
