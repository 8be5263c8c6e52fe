package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/fields"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
)

// FieldService manages fields and their crops. Unknown field numbers
// surface as common.ErrFieldNotFound; store failures as common.ErrorInternal.
type FieldService struct {
	repo         fields.Repository
	storeTimeout time.Duration
	log          logging.Logger
}

func NewFieldService(m repomanager.RepositoryManager, storeTimeout time.Duration, log logging.Logger) *FieldService {
	return &FieldService{
		repo:         m.Fields(),
		storeTimeout: storeTimeout,
		log:          log.With("module", "services.field"),
	}
}

func (s *FieldService) Create(ctx context.Context, field *models.Field) error {
	if strings.TrimSpace(field.GroundType) == "" || strings.TrimSpace(field.SoilType) == "" {
		return common.ErrorValidation
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.repo.Create(ctx, field); err != nil {
		if errors.Is(err, common.ErrFieldExists) {
			return err
		}
		return s.internal(ctx, "create field", err)
	}

	s.log.Info(ctx, "field created", "field", field.Number)
	return nil
}

func (s *FieldService) List(ctx context.Context) ([]models.Field, error) {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list fields", err)
	}
	return list, nil
}

func (s *FieldService) Get(ctx context.Context, number int) (*models.Field, error) {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	f, err := s.repo.Get(ctx, number)
	if err != nil {
		return nil, s.notFoundOr(ctx, "get field", err)
	}
	return f, nil
}

// Update applies patch. The field number itself cannot be changed.
func (s *FieldService) Update(ctx context.Context, number int, patch models.FieldPatch) error {
	if blank(patch.GroundType) || blank(patch.SoilType) {
		return common.ErrorValidation
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.repo.Update(ctx, number, patch); err != nil {
		return s.notFoundOr(ctx, "update field", err)
	}

	s.log.Info(ctx, "field updated", "field", number)
	return nil
}

// Delete removes the field and every crop on it.
func (s *FieldService) Delete(ctx context.Context, number int) error {
	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, number); err != nil {
		return s.notFoundOr(ctx, "delete field", err)
	}

	s.log.Info(ctx, "field deleted", "field", number)
	return nil
}

// AddCrop attaches crop to an existing field. A zero growth stage becomes
// models.DefaultGrowthStage.
func (s *FieldService) AddCrop(ctx context.Context, crop *models.FieldCrop) error {
	if crop.GrowthStage == 0 {
		crop.GrowthStage = models.DefaultGrowthStage
	}
	if strings.TrimSpace(crop.Type) == "" || crop.GrowthStage < 1 || !crop.GrowthTense.Valid() {
		return common.ErrorValidation
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.repo.AddCrop(ctx, crop); err != nil {
		return s.notFoundOr(ctx, "add crop", err)
	}

	s.log.Info(ctx, "crop added", "field", crop.FieldNumber, "crop", crop.Type, "tense", string(crop.GrowthTense))
	return nil
}

// CropsByTense lists the crops on a field with the given tense. An unknown
// field has no crops.
func (s *FieldService) CropsByTense(ctx context.Context, number int, tense models.GrowthTense) ([]models.FieldCrop, error) {
	if !tense.Valid() {
		return nil, common.ErrorValidation
	}

	ctx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	crops, err := s.repo.CropsByTense(ctx, number, tense)
	if err != nil {
		return nil, s.internal(ctx, "list crops", err)
	}
	return crops, nil
}

func (s *FieldService) notFoundOr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrFieldNotFound
	}
	return s.internal(ctx, op, err)
}

func (s *FieldService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

func blank(p *string) bool {
	return p != nil && strings.TrimSpace(*p) == ""
}
