package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/models"
)

// ErrNoDocument indicates a missing document. Any other store failure is
// a backend error and wraps the underlying cause.
var ErrNoDocument = errors.New("store: no document")

// EntityStore reads whisk entity documents. Implementations must return
// ErrNoDocument for missing or kind-mismatched documents.
type EntityStore interface {
	GetPackage(ctx context.Context, docID string) (*entity.Package, error)
	GetAction(ctx context.Context, docID string) (*entity.Action, error)
	GetTrigger(ctx context.Context, docID string) (*entity.Trigger, error)
}

// GormEntityStore is the database-backed EntityStore.
type GormEntityStore struct {
	db *gorm.DB
}

// NewGormEntityStore constructs a GormEntityStore.
func NewGormEntityStore(db *gorm.DB) *GormEntityStore { return &GormEntityStore{db: db} }

// GetPackage loads a package document by its qualified document ID.
func (s *GormEntityStore) GetPackage(ctx context.Context, docID string) (*entity.Package, error) {
	content, errGet := s.getContent(ctx, models.KindPackage, docID)
	if errGet != nil {
		return nil, errGet
	}
	var pkg entity.Package
	if errUnmarshal := json.Unmarshal(content, &pkg); errUnmarshal != nil {
		return nil, fmt.Errorf("store: decode package %s: %w", docID, errUnmarshal)
	}
	return &pkg, nil
}

// GetAction loads an action document by its qualified document ID.
func (s *GormEntityStore) GetAction(ctx context.Context, docID string) (*entity.Action, error) {
	content, errGet := s.getContent(ctx, models.KindAction, docID)
	if errGet != nil {
		return nil, errGet
	}
	var action entity.Action
	if errUnmarshal := json.Unmarshal(content, &action); errUnmarshal != nil {
		return nil, fmt.Errorf("store: decode action %s: %w", docID, errUnmarshal)
	}
	return &action, nil
}

// GetTrigger loads a trigger document by its qualified document ID.
func (s *GormEntityStore) GetTrigger(ctx context.Context, docID string) (*entity.Trigger, error) {
	content, errGet := s.getContent(ctx, models.KindTrigger, docID)
	if errGet != nil {
		return nil, errGet
	}
	var trigger entity.Trigger
	if errUnmarshal := json.Unmarshal(content, &trigger); errUnmarshal != nil {
		return nil, fmt.Errorf("store: decode trigger %s: %w", docID, errUnmarshal)
	}
	return &trigger, nil
}

// Put stores or replaces an entity document. Used by tests; the request
// path never writes entities.
func (s *GormEntityStore) Put(ctx context.Context, kind, docID string, doc any) error {
	if s == nil || s.db == nil {
		return errors.New("store: db not initialized")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return errors.New("store: empty document id")
	}
	content, errMarshal := json.Marshal(doc)
	if errMarshal != nil {
		return fmt.Errorf("store: encode %s: %w", docID, errMarshal)
	}
	namespace, name := splitDocID(docID)

	var existing models.Document
	errFind := s.db.WithContext(ctx).
		Where("doc_id = ? AND kind = ?", docID, kind).
		First(&existing).Error
	if errFind == nil {
		return s.db.WithContext(ctx).
			Model(&models.Document{}).
			Where("id = ?", existing.ID).
			Update("content", content).Error
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("store: lookup %s: %w", docID, errFind)
	}

	row := models.Document{
		DocID:     docID,
		Kind:      kind,
		Namespace: namespace,
		Name:      name,
		Content:   content,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormEntityStore) getContent(ctx context.Context, kind, docID string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db not initialized")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, ErrNoDocument
	}

	var row models.Document
	errFind := s.db.WithContext(ctx).
		Select("content").
		Where("doc_id = ? AND kind = ?", docID, kind).
		Take(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get %s: %w", docID, errFind)
	}
	return row.Content, nil
}

func splitDocID(docID string) (namespace, name string) {
	idx := strings.Index(docID, "/")
	if idx < 0 {
		return docID, ""
	}
	return docID[:idx], docID[idx+1:]
}
