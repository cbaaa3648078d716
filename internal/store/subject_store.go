package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/featherfn/metagate/internal/entity"
	"github.com/featherfn/metagate/internal/models"
)

// SubjectStore resolves principals to identities.
type SubjectStore interface {
	GetBySubject(ctx context.Context, subject string) (*entity.Identity, error)
	GetByUUID(ctx context.Context, uuid string) (*entity.Identity, error)
}

// GormSubjectStore is the database-backed SubjectStore.
type GormSubjectStore struct {
	db *gorm.DB
}

// NewGormSubjectStore constructs a GormSubjectStore.
func NewGormSubjectStore(db *gorm.DB) *GormSubjectStore { return &GormSubjectStore{db: db} }

// GetBySubject looks up an identity by principal name.
func (s *GormSubjectStore) GetBySubject(ctx context.Context, subject string) (*entity.Identity, error) {
	return s.get(ctx, "subject = ?", strings.TrimSpace(subject))
}

// GetByUUID looks up an identity by its basic-auth user half.
func (s *GormSubjectStore) GetByUUID(ctx context.Context, uuid string) (*entity.Identity, error) {
	return s.get(ctx, "uuid = ?", strings.TrimSpace(uuid))
}

func (s *GormSubjectStore) get(ctx context.Context, query, value string) (*entity.Identity, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db not initialized")
	}
	if value == "" {
		return nil, ErrNoDocument
	}

	var row models.Subject
	errFind := s.db.WithContext(ctx).
		Where(query, value).
		Take(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get subject: %w", errFind)
	}
	if row.Blocked {
		return nil, ErrNoDocument
	}

	return &entity.Identity{
		Subject:   row.Subject,
		Namespace: row.Namespace,
		AuthKey:   entity.AuthKey{UUID: row.UUID, Key: row.Key},
	}, nil
}
