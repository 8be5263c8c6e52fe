package fields

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps fields in process memory. Every read returns
// copies, so callers cannot mutate stored state.
type MemoryRepository struct {
	mu     sync.RWMutex
	fields map[int]*models.Field
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		fields: make(map[int]*models.Field),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fields[field.Number]; ok {
		return nil, common.ErrFieldExists
	}

	field.CreatedAt = r.now().UTC()
	field.Crops = []models.FieldCrop{}
	stored := *field
	r.fields[field.Number] = &stored

	return field, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Field, 0, len(r.fields))
	for _, f := range r.fields {
		list = append(list, *clone(f))
	}
	slices.SortFunc(list, func(a, b models.Field) int { return a.Number - b.Number })

	return list, nil
}

func (r *MemoryRepository) Get(ctx context.Context, number int) (*models.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fields[number]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(f), nil
}

func (r *MemoryRepository) Update(ctx context.Context, number int, patch models.FieldPatch) (*models.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fields[number]
	if !ok {
		return nil, common.ErrorNotFound
	}
	patch.Apply(f)
	return clone(f), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fields[number]; !ok {
		return common.ErrorNotFound
	}
	delete(r.fields, number)
	return nil
}

func (r *MemoryRepository) AddCrop(ctx context.Context, crop *models.FieldCrop) (*models.FieldCrop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fields[crop.FieldNumber]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if crop.ID == "" {
		crop.ID = uuid.NewString()
	}
	f.Crops = append(f.Crops, *crop)

	return crop, nil
}

func (r *MemoryRepository) CropsByTense(ctx context.Context, number int, tense models.GrowthTense) ([]models.FieldCrop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	crops := []models.FieldCrop{}
	f, ok := r.fields[number]
	if !ok {
		return crops, nil
	}
	for _, c := range f.Crops {
		if c.GrowthTense == tense {
			crops = append(crops, c)
		}
	}
	return crops, nil
}

func clone(f *models.Field) *models.Field {
	c := *f
	c.Crops = append([]models.FieldCrop{}, f.Crops...)
	return &c
}
