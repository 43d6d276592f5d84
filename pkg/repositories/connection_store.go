package repositories

import (
	"context"

	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

// ConnectionStore persists connection definitions.
type ConnectionStore interface {
	// Get returns apperrors.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*models.ConnectionDefinition, error)

	// GetAll returns every definition ordered by name.
	GetAll(ctx context.Context) ([]models.ConnectionDefinition, error)

	// Upsert inserts def or replaces the definition with the same id.
	// CreatedAt of an existing definition is preserved.
	Upsert(ctx context.Context, def *models.ConnectionDefinition) error
}
