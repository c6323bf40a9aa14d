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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrDivisionNotFound         = errors.New("division not found")
	ErrDivisionNameConflict     = errors.New("division name conflict for this tournament")
	ErrDivisionTeamInvalid      = errors.New("invalid team reference")
	ErrDivisionTournamentNotSet = errors.New("invalid tournament reference")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	CreateDivision(ctx context.Context, division *models.Division) error
	GetDivision(ctx context.Context, id string) (*models.Division, error)
	ListDivisions(ctx context.Context, tournamentID string) ([]models.Division, error)
	// SetDivisionTeams заменяет состав дивизиона в одной транзакции.
	SetDivisionTeams(ctx context.Context, divisionID string, teamIDs []string) error
	DeleteDivision(ctx context.Context, id string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, start_date, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, t.Name, t.StartDate, t.Status).Scan(&t.ID, &t.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT id, name, start_date, status, created_at FROM tournaments WHERE id = $1`

	var t models.Tournament
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.StartDate, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	query := `SELECT id, name, start_date, status, created_at FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY start_date DESC NULLS LAST, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.StartDate, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrTournamentNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrTournamentNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tournaments: %w", err)
	}
	return n, nil
}

func (r *postgresTournamentRepository) CreateDivision(ctx context.Context, d *models.Division) error {
	query := `
		INSERT INTO divisions (tournament_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, d.TournamentID, d.Name).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return r.handleDivisionError(err)
	}
	if d.TeamIDs == nil {
		d.TeamIDs = []string{}
	}
	return nil
}

const divisionSelect = `
	SELECT d.id, d.tournament_id, d.name, d.created_at,
		COALESCE(array_agg(dt.team_id::text) FILTER (WHERE dt.team_id IS NOT NULL), '{}')
	FROM divisions d
	LEFT JOIN division_teams dt ON dt.division_id = d.id`

func (r *postgresTournamentRepository) GetDivision(ctx context.Context, id string) (*models.Division, error) {
	query := divisionSelect + ` WHERE d.id = $1 GROUP BY d.id`
	d, err := scanDivision(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresTournamentRepository) ListDivisions(ctx context.Context, tournamentID string) ([]models.Division, error) {
	query := divisionSelect + ` WHERE d.tournament_id = $1 GROUP BY d.id ORDER BY d.name ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		if isInvalidID(err) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	defer rows.Close()

	divisions := make([]models.Division, 0)
	for rows.Next() {
		d, err := scanDivision(rows)
		if err != nil {
			return nil, err
		}
		divisions = append(divisions, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return divisions, nil
}

func (r *postgresTournamentRepository) SetDivisionTeams(ctx context.Context, divisionID string, teamIDs []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM division_teams WHERE division_id = $1`, divisionID); err != nil {
		if isInvalidID(err) {
			return ErrDivisionNotFound
		}
		return err
	}
	for _, teamID := range teamIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO division_teams (division_id, team_id) VALUES ($1, $2)`, divisionID, teamID); err != nil {
			return r.handleDivisionError(err)
		}
	}
	return tx.Commit()
}

func (r *postgresTournamentRepository) DeleteDivision(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM divisions WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrDivisionNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrDivisionNotFound)
}

func scanDivision(s rowScanner) (*models.Division, error) {
	var d models.Division
	var teamIDs pq.StringArray
	if err := s.Scan(&d.ID, &d.TournamentID, &d.Name, &d.CreatedAt, &teamIDs); err != nil {
		return nil, err
	}
	d.TeamIDs = []string(teamIDs)
	if d.TeamIDs == nil {
		d.TeamIDs = []string{}
	}
	return &d, nil
}

func (r *postgresTournamentRepository) handleDivisionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "divisions_tournament_id_name_key" {
				return ErrDivisionNameConflict
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "division_teams_team_id_fkey":
				return ErrDivisionTeamInvalid
			case "division_teams_division_id_fkey":
				return ErrDivisionNotFound
			case "divisions_tournament_id_fkey":
				return ErrDivisionTournamentNotSet
			}
		case pqInvalidTextRep:
			return ErrDivisionTeamInvalid
		}
	}
	return err
}
