package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hockey-madness/models"
)

var ErrBoosterNotFound = errors.New("booster not found")

type BoosterRepository interface {
	Create(ctx context.Context, booster *models.Booster) error
	GetByID(ctx context.Context, id string) (*models.Booster, error)
	List(ctx context.Context, kind *models.BoosterKind) ([]models.Booster, error)
	Update(ctx context.Context, booster *models.Booster) error
	Delete(ctx context.Context, id string) error
}

type postgresBoosterRepository struct {
	db *sql.DB
}

func NewPostgresBoosterRepository(db *sql.DB) BoosterRepository {
	return &postgresBoosterRepository{db: db}
}

const boosterColumns = `id, name, icon, description, duration_minutes, kind, created_at`

func (r *postgresBoosterRepository) Create(ctx context.Context, b *models.Booster) error {
	query := `
		INSERT INTO boosters (name, icon, description, duration_minutes, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, b.Name, b.Icon, b.Description, b.DurationMinutes, b.Kind).
		Scan(&b.ID, &b.CreatedAt)
}

func (r *postgresBoosterRepository) GetByID(ctx context.Context, id string) (*models.Booster, error) {
	var b models.Booster
	err := r.db.QueryRowContext(ctx, `SELECT `+boosterColumns+` FROM boosters WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Icon, &b.Description, &b.DurationMinutes, &b.Kind, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrBoosterNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *postgresBoosterRepository) List(ctx context.Context, kind *models.BoosterKind) ([]models.Booster, error) {
	query := `SELECT ` + boosterColumns + ` FROM boosters`
	args := []interface{}{}
	if kind != nil {
		query += ` WHERE kind = $1`
		args = append(args, *kind)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list boosters: %w", err)
	}
	defer rows.Close()

	boosters := make([]models.Booster, 0)
	for rows.Next() {
		var b models.Booster
		if err := rows.Scan(&b.ID, &b.Name, &b.Icon, &b.Description, &b.DurationMinutes, &b.Kind, &b.CreatedAt); err != nil {
			return nil, err
		}
		boosters = append(boosters, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boosters, nil
}

func (r *postgresBoosterRepository) Update(ctx context.Context, b *models.Booster) error {
	query := `UPDATE boosters SET name = $1, icon = $2, description = $3, duration_minutes = $4, kind = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, b.Name, b.Icon, b.Description, b.DurationMinutes, b.Kind, b.ID)
	if err != nil {
		if isInvalidID(err) {
			return ErrBoosterNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrBoosterNotFound)
}

func (r *postgresBoosterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM boosters WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrBoosterNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrBoosterNotFound)
}
