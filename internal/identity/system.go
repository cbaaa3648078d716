package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/store"
)

// SystemCredentialSource resolves the privileged system identity's
// credentials once and caches them for the process lifetime. The cached
// value is published through an atomic so readers never block; a failed
// first lookup is retried on the next request.
type SystemCredentialSource struct {
	subjects      store.SubjectStore
	systemSubject string

	cached atomic.Value // stores entity.AuthKey
	mu     sync.Mutex   // serializes lookups while the cache is empty
}

// NewSystemCredentialSource constructs a SystemCredentialSource for the
// named system subject.
func NewSystemCredentialSource(subjects store.SubjectStore, systemSubject string) *SystemCredentialSource {
	return &SystemCredentialSource{subjects: subjects, systemSubject: systemSubject}
}

// Get returns the system authkey, looking it up on first use.
func (s *SystemCredentialSource) Get(ctx context.Context) (entity.AuthKey, error) {
	if s == nil || s.subjects == nil {
		return entity.AuthKey{}, errors.New("identity: credential source not initialized")
	}
	if key, ok := s.cached.Load().(entity.AuthKey); ok {
		return key, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.cached.Load().(entity.AuthKey); ok {
		return key, nil
	}

	ident, errGet := s.subjects.GetBySubject(ctx, s.systemSubject)
	if errGet != nil {
		return entity.AuthKey{}, fmt.Errorf("identity: resolve system subject %s: %w", s.systemSubject, errGet)
	}
	if !ident.AuthKey.Valid() {
		return entity.AuthKey{}, fmt.Errorf("identity: system subject %s has no authkey", s.systemSubject)
	}

	s.cached.Store(ident.AuthKey)
	return ident.AuthKey, nil
}
