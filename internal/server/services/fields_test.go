package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFieldService() *FieldService {
	return NewFieldService(repomanager.NewMemoryRepositoryManager(), time.Second, logging.Nop())
}

func seedField(t *testing.T, s *FieldService, number int) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), &models.Field{
		Number: number, GroundType: "arable", SoilType: "loam", NitrogenLevel: 40, PHLevel: 6.5,
	}))
}

func TestFieldService_CreateAndGet(t *testing.T) {
	s := newFieldService()
	seedField(t, s, 8)

	f, err := s.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "loam", f.SoilType)

	err = s.Create(context.Background(), &models.Field{Number: 8, GroundType: "grass", SoilType: "clay"})
	assert.ErrorIs(t, err, common.ErrFieldExists)
}

func TestFieldService_CreateRejectsBlankTypes(t *testing.T) {
	s := newFieldService()
	err := s.Create(context.Background(), &models.Field{Number: 1, GroundType: " ", SoilType: "clay"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestFieldService_NotFoundMapping(t *testing.T) {
	s := newFieldService()
	ctx := context.Background()

	_, err := s.Get(ctx, 404)
	assert.ErrorIs(t, err, common.ErrFieldNotFound)

	ph := 7.0
	assert.ErrorIs(t, s.Update(ctx, 404, models.FieldPatch{PHLevel: &ph}), common.ErrFieldNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 404), common.ErrFieldNotFound)

	err = s.AddCrop(ctx, &models.FieldCrop{Type: "wheat", GrowthTense: models.TensePresent, FieldNumber: 404})
	assert.ErrorIs(t, err, common.ErrFieldNotFound)
}

func TestFieldService_UpdateRejectsBlankTypes(t *testing.T) {
	s := newFieldService()
	seedField(t, s, 2)

	empty := ""
	assert.ErrorIs(t, s.Update(context.Background(), 2, models.FieldPatch{SoilType: &empty}), common.ErrorValidation)
}

func TestFieldService_AddCropDefaultsStage(t *testing.T) {
	s := newFieldService()
	seedField(t, s, 3)

	crop := &models.FieldCrop{Type: "canola", GrowthTense: models.TenseFuture, FieldNumber: 3}
	require.NoError(t, s.AddCrop(context.Background(), crop))
	assert.Equal(t, models.DefaultGrowthStage, crop.GrowthStage)

	future, err := s.CropsByTense(context.Background(), 3, models.TenseFuture)
	require.NoError(t, err)
	require.Len(t, future, 1)
	assert.Equal(t, "canola", future[0].Type)
}

func TestFieldService_AddCropValidation(t *testing.T) {
	s := newFieldService()
	seedField(t, s, 3)

	cases := map[string]models.FieldCrop{
		"blank type":     {Type: "", GrowthTense: models.TensePast, FieldNumber: 3},
		"bad tense":      {Type: "oat", GrowthTense: "someday", FieldNumber: 3},
		"negative stage": {Type: "oat", GrowthStage: -1, GrowthTense: models.TensePast, FieldNumber: 3},
	}
	for name, crop := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.AddCrop(context.Background(), &crop), common.ErrorValidation)
		})
	}
}

func TestFieldService_CropsByTenseRejectsUnknownTense(t *testing.T) {
	_, err := newFieldService().CropsByTense(context.Background(), 1, "later")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestFieldService_StoreErrorIsInternal(t *testing.T) {
	fm := &failingManager{repo: &failingRepo{err: errors.New("down")}}
	s := NewFieldService(fm, time.Second, logging.Nop())
	ctx := context.Background()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, common.ErrorInternal)
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.False(t, errors.Is(err, common.ErrFieldNotFound))
	assert.ErrorIs(t, s.Delete(ctx, 1), common.ErrorInternal)
	err = s.Create(ctx, &models.Field{Number: 1, GroundType: "grass", SoilType: "clay"})
	assert.ErrorIs(t, err, common.ErrorInternal)
}
