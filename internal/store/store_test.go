package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Document{}, &models.Subject{}, &models.TriggerActivation{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestEntityStorePackageRoundTrip(t *testing.T) {
	entities := NewGormEntityStore(newTestDB(t))
	ctx := context.Background()

	pkg := &entity.Package{
		Namespace: "whisk.system",
		Name:      "heavymeta",
		Publish:   false,
		Parameters: entity.Parameters{
			{Key: "x", Value: "X"},
		},
		Annotations: entity.Annotations{
			{Key: "meta", Value: true},
			{Key: "get", Value: "getApi"},
		},
	}
	if errPut := entities.Put(ctx, models.KindPackage, "whisk.system/heavymeta", pkg); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}

	loaded, errGet := entities.GetPackage(ctx, "whisk.system/heavymeta")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if !loaded.IsMeta() {
		t.Fatal("loaded package lost its meta annotation")
	}
	if action, ok := loaded.ActionForVerb("get"); !ok || action != "getApi" {
		t.Fatalf("unexpected verb mapping: %s %v", action, ok)
	}
	if v, _ := loaded.Parameters.Get("x"); v != "X" {
		t.Fatalf("parameters lost: %v", loaded.Parameters)
	}
}

func TestEntityStoreMissingDocument(t *testing.T) {
	entities := NewGormEntityStore(newTestDB(t))

	if _, errGet := entities.GetPackage(context.Background(), "whisk.system/absent"); !errors.Is(errGet, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", errGet)
	}
}

func TestEntityStoreKindMismatchIsNoDocument(t *testing.T) {
	entities := NewGormEntityStore(newTestDB(t))
	ctx := context.Background()

	trig := &entity.Trigger{Namespace: "guest", Name: "t1"}
	if errPut := entities.Put(ctx, models.KindTrigger, "guest/t1", trig); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}

	if _, errGet := entities.GetPackage(ctx, "guest/t1"); !errors.Is(errGet, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument for kind mismatch, got %v", errGet)
	}
	if _, errGet := entities.GetTrigger(ctx, "guest/t1"); errGet != nil {
		t.Fatalf("trigger must load under its own kind: %v", errGet)
	}
}

func TestEntityStorePutReplacesExistingDocument(t *testing.T) {
	entities := NewGormEntityStore(newTestDB(t))
	ctx := context.Background()

	first := &entity.Action{Namespace: "whisk.system", Name: "getApi"}
	if errPut := entities.Put(ctx, models.KindAction, "whisk.system/routemgmt/getApi", first); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	second := &entity.Action{
		Namespace:  "whisk.system",
		Name:       "getApi",
		Parameters: entity.Parameters{{Key: "y", Value: "Y"}},
	}
	if errPut := entities.Put(ctx, models.KindAction, "whisk.system/routemgmt/getApi", second); errPut != nil {
		t.Fatalf("replace: %v", errPut)
	}

	loaded, errGet := entities.GetAction(ctx, "whisk.system/routemgmt/getApi")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if v, _ := loaded.Parameters.Get("y"); v != "Y" {
		t.Fatalf("replacement not visible: %v", loaded.Parameters)
	}
}

func TestSubjectStoreLookups(t *testing.T) {
	conn := newTestDB(t)
	subjects := NewGormSubjectStore(conn)
	ctx := context.Background()

	row := models.Subject{
		Subject:   "guest",
		Namespace: "guest",
		UUID:      "guest-uuid",
		Key:       "guest-key",
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create subject: %v", errCreate)
	}

	bySubject, errSubject := subjects.GetBySubject(ctx, "guest")
	if errSubject != nil {
		t.Fatalf("get by subject: %v", errSubject)
	}
	if bySubject.AuthKey.UUID != "guest-uuid" || bySubject.AuthKey.Key != "guest-key" {
		t.Fatalf("unexpected authkey: %+v", bySubject.AuthKey)
	}

	byUUID, errUUID := subjects.GetByUUID(ctx, "guest-uuid")
	if errUUID != nil {
		t.Fatalf("get by uuid: %v", errUUID)
	}
	if byUUID.Subject != "guest" || byUUID.Namespace != "guest" {
		t.Fatalf("unexpected identity: %+v", byUUID)
	}

	if _, errMissing := subjects.GetBySubject(ctx, "nobody"); !errors.Is(errMissing, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", errMissing)
	}
}

func TestSubjectStoreBlockedSubjectIsInvisible(t *testing.T) {
	conn := newTestDB(t)
	subjects := NewGormSubjectStore(conn)

	row := models.Subject{
		Subject:   "blocked",
		Namespace: "blocked",
		UUID:      "blocked-uuid",
		Key:       "blocked-key",
		Blocked:   true,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create subject: %v", errCreate)
	}

	if _, errGet := subjects.GetByUUID(context.Background(), "blocked-uuid"); !errors.Is(errGet, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument for blocked subject, got %v", errGet)
	}
}

func TestActivationStorePutAndGet(t *testing.T) {
	activations := NewGormActivationStore(newTestDB(t))
	ctx := context.Background()

	logs, _ := json.Marshal([]string{"line one", "line two"})
	record := &models.TriggerActivation{
		ActivationID: "aid-1",
		Namespace:    "guest",
		EntityName:   "t1",
		Subject:      "guest",
		Version:      "0.0.1",
		Logs:         logs,
	}
	if errPut := activations.Put(ctx, record); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}

	loaded, errGet := activations.Get(ctx, "guest", "aid-1")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	var gotLogs []string
	if errLogs := json.Unmarshal(loaded.Logs, &gotLogs); errLogs != nil {
		t.Fatalf("decode logs: %v", errLogs)
	}
	if len(gotLogs) != 2 || gotLogs[0] != "line one" {
		t.Fatalf("unexpected logs: %v", gotLogs)
	}

	if _, errMissing := activations.Get(ctx, "guest", "aid-2"); !errors.Is(errMissing, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", errMissing)
	}
	if _, errWrongNS := activations.Get(ctx, "other", "aid-1"); !errors.Is(errWrongNS, ErrNoDocument) {
		t.Fatalf("activation must not be visible across namespaces, got %v", errWrongNS)
	}
}
