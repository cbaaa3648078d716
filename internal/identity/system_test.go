package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/store"
)

type countingSubjectStore struct {
	calls int
	ident *entity.Identity
	err   error
}

func (s *countingSubjectStore) GetBySubject(_ context.Context, _ string) (*entity.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ident, nil
}

func (s *countingSubjectStore) GetByUUID(_ context.Context, _ string) (*entity.Identity, error) {
	return nil, store.ErrNoDocument
}

func systemIdent() *entity.Identity {
	return &entity.Identity{
		Subject:   "whisk.system",
		Namespace: "whisk.system",
		AuthKey:   entity.AuthKey{UUID: "sys-uuid", Key: "sys-key"},
	}
}

func TestGetCachesAfterFirstSuccess(t *testing.T) {
	subjects := &countingSubjectStore{ident: systemIdent()}
	source := NewSystemCredentialSource(subjects, "whisk.system")

	for i := 0; i < 3; i++ {
		key, errGet := source.Get(context.Background())
		if errGet != nil {
			t.Fatalf("get %d: %v", i, errGet)
		}
		if key.UUID != "sys-uuid" || key.Key != "sys-key" {
			t.Fatalf("get %d: unexpected key %+v", i, key)
		}
	}
	if subjects.calls != 1 {
		t.Fatalf("expected one store lookup, got %d", subjects.calls)
	}
}

func TestGetRetriesAfterFailure(t *testing.T) {
	subjects := &countingSubjectStore{err: errors.New("store down")}
	source := NewSystemCredentialSource(subjects, "whisk.system")

	if _, errGet := source.Get(context.Background()); errGet == nil {
		t.Fatal("expected an error while the store is down")
	}

	subjects.err = nil
	subjects.ident = systemIdent()
	key, errGet := source.Get(context.Background())
	if errGet != nil {
		t.Fatalf("expected retry to succeed: %v", errGet)
	}
	if key.UUID != "sys-uuid" {
		t.Fatalf("unexpected key: %+v", key)
	}
	if subjects.calls != 2 {
		t.Fatalf("expected two lookups, got %d", subjects.calls)
	}
}

func TestGetRejectsSubjectWithoutAuthKey(t *testing.T) {
	subjects := &countingSubjectStore{ident: &entity.Identity{Subject: "whisk.system"}}
	source := NewSystemCredentialSource(subjects, "whisk.system")

	if _, errGet := source.Get(context.Background()); errGet == nil {
		t.Fatal("expected an error for a subject without credentials")
	}
}
