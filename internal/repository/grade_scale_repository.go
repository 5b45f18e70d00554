package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sms-results-api/internal/models"
)

// GradeScaleRepository persists the active grading threshold table.
type GradeScaleRepository struct {
	db *sqlx.DB
}

// NewGradeScaleRepository creates a new grade scale repository.
func NewGradeScaleRepository(db *sqlx.DB) *GradeScaleRepository {
	return &GradeScaleRepository{db: db}
}

// FindActive loads the active scale with its bands. sql.ErrNoRows when none
// has been configured.
func (r *GradeScaleRepository) FindActive(ctx context.Context) (*models.GradeScale, error) {
	const scaleQuery = `SELECT id, name, updated_at FROM grade_scales WHERE active = TRUE LIMIT 1`
	var scale models.GradeScale
	if err := r.db.GetContext(ctx, &scale, scaleQuery); err != nil {
		return nil, err
	}
	const bandsQuery = `SELECT min_percent, grade, remark FROM grade_scale_bands
        WHERE scale_id = $1 ORDER BY min_percent DESC`
	if err := r.db.SelectContext(ctx, &scale.Bands, bandsQuery, scale.ID); err != nil {
		return nil, fmt.Errorf("load grade bands: %w", err)
	}
	return &scale, nil
}

// Upsert replaces the active scale and its bands in one transaction.
func (r *GradeScaleRepository) Upsert(ctx context.Context, scale *models.GradeScale) error {
	if scale.ID == "" {
		scale.ID = uuid.NewString()
	}
	scale.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE grade_scales SET active = FALSE WHERE active = TRUE`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("deactivate grade scales: %w", err)
	}
	const scaleQuery = `INSERT INTO grade_scales (id, name, active, updated_at)
        VALUES ($1, $2, TRUE, $3)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = TRUE, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, scaleQuery, scale.ID, scale.Name, scale.UpdatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert grade scale: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_scale_bands WHERE scale_id = $1`, scale.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear grade bands: %w", err)
	}
	const bandQuery = `INSERT INTO grade_scale_bands (scale_id, min_percent, grade, remark) VALUES ($1, $2, $3, $4)`
	for _, band := range scale.Bands {
		if _, err := tx.ExecContext(ctx, bandQuery, scale.ID, band.MinPercent, band.Grade, band.Remark); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert grade band: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade scale: %w", err)
	}
	return nil
}
