package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/dbx"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	fieldsPrimaryKey = "fields_pkey"
	cropsFieldFKey   = "field_crops_field_number_fkey"

	fieldColumns = `number, ground_type, soil_type, nitrogen_level, ph_level, plowed, rolled, weeded, mulched, created_at`
	cropColumns  = `id, crop_type, growth_stage, growth_tense, field_number`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	query :=
		`INSERT INTO fields (number, ground_type, soil_type, nitrogen_level, ph_level, plowed, rolled, weeded, mulched)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		field.Number, field.GroundType, field.SoilType, field.NitrogenLevel, field.PHLevel,
		field.Plowed, field.Rolled, field.Weeded, field.Mulched).Scan(&field.CreatedAt)

	if err != nil {
		if isViolation(err, pgUniqueViolation, fieldsPrimaryKey) {
			return nil, common.ErrFieldExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	field.Crops = []models.FieldCrop{}
	return field, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Field, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fieldColumns+` FROM fields ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := []models.Field{}
	index := map[int]int{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		index[f.Number] = len(list)
		list = append(list, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	crops, err := r.queryCrops(ctx, `SELECT `+cropColumns+` FROM field_crops ORDER BY field_number, created_at, id`)
	if err != nil {
		return nil, err
	}
	for _, c := range crops {
		if i, ok := index[c.FieldNumber]; ok {
			list[i].Crops = append(list[i].Crops, c)
		}
	}

	return list, nil
}

func (r *PostgresRepository) Get(ctx context.Context, number int) (*models.Field, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fieldColumns+` FROM fields WHERE number = $1`, number)
	f, err := scanField(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.withCrops(ctx, f)
}

// Update applies patch in a single statement; unset members keep their
// stored value through COALESCE.
func (r *PostgresRepository) Update(ctx context.Context, number int, patch models.FieldPatch) (*models.Field, error) {
	query :=
		`UPDATE fields SET
		   ground_type = COALESCE($2, ground_type),
		   soil_type = COALESCE($3, soil_type),
		   nitrogen_level = COALESCE($4, nitrogen_level),
		   ph_level = COALESCE($5, ph_level),
		   plowed = COALESCE($6, plowed),
		   rolled = COALESCE($7, rolled),
		   weeded = COALESCE($8, weeded),
		   mulched = COALESCE($9, mulched)
		 WHERE number = $1
		 RETURNING ` + fieldColumns

	row := r.db.QueryRowContext(ctx, query, number,
		nullable(patch.GroundType), nullable(patch.SoilType), nullable(patch.NitrogenLevel), nullable(patch.PHLevel),
		nullable(patch.Plowed), nullable(patch.Rolled), nullable(patch.Weeded), nullable(patch.Mulched))

	f, err := scanField(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.withCrops(ctx, f)
}

func (r *PostgresRepository) Delete(ctx context.Context, number int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fields WHERE number = $1`, number)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) AddCrop(ctx context.Context, crop *models.FieldCrop) (*models.FieldCrop, error) {
	if crop.ID == "" {
		crop.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO field_crops (id, field_number, crop_type, growth_stage, growth_tense)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		crop.ID, crop.FieldNumber, crop.Type, crop.GrowthStage, string(crop.GrowthTense))
	if err != nil {
		if isViolation(err, pgForeignKeyViolation, cropsFieldFKey) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return crop, nil
}

func (r *PostgresRepository) CropsByTense(ctx context.Context, number int, tense models.GrowthTense) ([]models.FieldCrop, error) {
	return r.queryCrops(ctx,
		`SELECT `+cropColumns+` FROM field_crops WHERE field_number = $1 AND growth_tense = $2 ORDER BY created_at, id`,
		number, string(tense))
}

func (r *PostgresRepository) withCrops(ctx context.Context, f *models.Field) (*models.Field, error) {
	crops, err := r.queryCrops(ctx,
		`SELECT `+cropColumns+` FROM field_crops WHERE field_number = $1 ORDER BY created_at, id`, f.Number)
	if err != nil {
		return nil, err
	}
	f.Crops = crops
	return f, nil
}

func (r *PostgresRepository) queryCrops(ctx context.Context, query string, args ...any) ([]models.FieldCrop, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	crops := []models.FieldCrop{}
	for rows.Next() {
		var c models.FieldCrop
		var tense string
		if err := rows.Scan(&c.ID, &c.Type, &c.GrowthStage, &tense, &c.FieldNumber); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.GrowthTense = models.GrowthTense(tense)
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return crops, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanField(s scanner) (*models.Field, error) {
	f := &models.Field{Crops: []models.FieldCrop{}}
	err := s.Scan(&f.Number, &f.GroundType, &f.SoilType, &f.NitrogenLevel, &f.PHLevel,
		&f.Plowed, &f.Rolled, &f.Weeded, &f.Mulched, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// nullable turns an unset patch member into SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func isViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code && pgErr.ConstraintName == constraint
}
