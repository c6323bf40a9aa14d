package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, name, players, logo_url, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	players, err := jsonValue(team.Players)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO teams (name, players, logo_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, team.Name, players, team.LogoURL).Scan(&team.ID, &team.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name ASC`)
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	if len(ids) == 0 {
		return []models.Team{}, nil
	}
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ANY($1) ORDER BY name ASC`, pq.Array(ids))
}

func (r *postgresTeamRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	players, err := jsonValue(team.Players)
	if err != nil {
		return err
	}
	query := `UPDATE teams SET name = $1, players = $2, logo_url = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, team.Name, players, team.LogoURL, team.ID)
	if err != nil {
		if isInvalidID(err) {
			return ErrTeamNotFound
		}
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrTeamNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTeam(s rowScanner) (*models.Team, error) {
	var team models.Team
	var players []byte
	if err := s.Scan(&team.ID, &team.Name, &players, &team.LogoURL, &team.CreatedAt); err != nil {
		return nil, err
	}
	team.Players = []models.Player{}
	if err := scanJSON(players, &team.Players); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "teams_name_key" {
		return ErrTeamNameConflict
	}
	return err
}
