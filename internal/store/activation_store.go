package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/featherfn/metagate/internal/models"
)

// ActivationStore persists trigger activation records. Put is called
// exactly once per fired trigger; a failed put is logged by the caller
// and never retried, since the activation id was already reported.
type ActivationStore interface {
	Put(ctx context.Context, record *models.TriggerActivation) error
	Get(ctx context.Context, namespace, activationID string) (*models.TriggerActivation, error)
}

// GormActivationStore is the database-backed ActivationStore.
type GormActivationStore struct {
	db *gorm.DB
}

// NewGormActivationStore constructs a GormActivationStore.
func NewGormActivationStore(db *gorm.DB) *GormActivationStore {
	return &GormActivationStore{db: db}
}

// Put writes one activation record.
func (s *GormActivationStore) Put(ctx context.Context, record *models.TriggerActivation) error {
	if s == nil || s.db == nil {
		return errors.New("store: db not initialized")
	}
	if record == nil {
		return errors.New("store: nil activation record")
	}
	if strings.TrimSpace(record.ActivationID) == "" {
		return errors.New("store: empty activation id")
	}
	if errCreate := s.db.WithContext(ctx).Create(record).Error; errCreate != nil {
		return fmt.Errorf("store: put activation %s: %w", record.ActivationID, errCreate)
	}
	return nil
}

// Get loads an activation record by namespace and activation id.
func (s *GormActivationStore) Get(ctx context.Context, namespace, activationID string) (*models.TriggerActivation, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db not initialized")
	}
	activationID = strings.TrimSpace(activationID)
	if activationID == "" {
		return nil, ErrNoDocument
	}

	var row models.TriggerActivation
	errFind := s.db.WithContext(ctx).
		Where("namespace = ? AND activation_id = ?", strings.TrimSpace(namespace), activationID).
		Take(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get activation %s: %w", activationID, errFind)
	}
	return &row, nil
}
