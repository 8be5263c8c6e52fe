// Package fields declares the field and crop store with PostgreSQL and
// in-memory implementations.
package fields

import (
	"context"

	"github.com/dmitrijs2005/farmhand/internal/server/models"
)

// Repository stores fields and the crops planted on them. Lookups by a
// field number that does not exist return common.ErrorNotFound.
type Repository interface {
	// Create inserts field. A taken number yields common.ErrFieldExists.
	Create(ctx context.Context, field *models.Field) (*models.Field, error)

	// List returns every field with its crops, ordered by number.
	List(ctx context.Context) ([]models.Field, error)
	Get(ctx context.Context, number int) (*models.Field, error)
	Update(ctx context.Context, number int, patch models.FieldPatch) (*models.Field, error)

	// Delete removes the field together with its crops.
	Delete(ctx context.Context, number int) error

	AddCrop(ctx context.Context, crop *models.FieldCrop) (*models.FieldCrop, error)
	CropsByTense(ctx context.Context, number int, tense models.GrowthTense) ([]models.FieldCrop, error)
}
