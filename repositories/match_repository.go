package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/hockey-madness/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchDivisionInvalid = errors.New("invalid division reference")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error)
	// Update применяет только заданные поля патча и возвращает актуальную запись.
	Update(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.MatchStatus]int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, team_a, team_b, score_a, score_b, pc_a, pc_b, status, time_left, maddie,
	boosters, cards, timeline, division_id, scheduled_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	boosters, err := jsonValue(m.Boosters)
	if err != nil {
		return err
	}
	cards, err := jsonValue(m.Cards)
	if err != nil {
		return err
	}
	timeline, err := jsonValue(m.Timeline)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches (team_a, team_b, score_a, score_b, pc_a, pc_b, status, time_left, maddie,
			boosters, cards, timeline, division_id, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		m.TeamA, m.TeamB, m.ScoreA, m.ScoreB, m.PCA, m.PCB, m.Status, m.TimeLeft, m.Maddie,
		boosters, cards, timeline, m.DivisionID, m.ScheduledAt,
	).Scan(&m.ID, &m.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.DivisionID != nil {
		query += fmt.Sprintf(" AND division_id = $%d", argID)
		args = append(args, *filter.DivisionID)
	}
	query += " ORDER BY scheduled_at ASC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isInvalidID(err) {
			return []models.Match{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setJSON := func(column string, value interface{}) error {
		b, err := jsonValue(value)
		if err != nil {
			return err
		}
		set(column, b)
		return nil
	}

	if patch.TeamA != nil {
		set("team_a", *patch.TeamA)
	}
	if patch.TeamB != nil {
		set("team_b", *patch.TeamB)
	}
	if patch.ScoreA != nil {
		set("score_a", *patch.ScoreA)
	}
	if patch.ScoreB != nil {
		set("score_b", *patch.ScoreB)
	}
	if patch.PCA != nil {
		set("pc_a", *patch.PCA)
	}
	if patch.PCB != nil {
		set("pc_b", *patch.PCB)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.TimeLeft != nil {
		set("time_left", *patch.TimeLeft)
	}
	if patch.Maddie != nil {
		set("maddie", *patch.Maddie)
	}
	if patch.Boosters != nil {
		if err := setJSON("boosters", *patch.Boosters); err != nil {
			return nil, err
		}
	}
	if patch.Cards != nil {
		if err := setJSON("cards", *patch.Cards); err != nil {
			return nil, err
		}
	}
	if patch.Timeline != nil {
		if err := setJSON("timeline", *patch.Timeline); err != nil {
			return nil, err
		}
	}
	if patch.DivisionID != nil {
		set("division_id", *patch.DivisionID)
	}
	if patch.ScheduledAt != nil {
		set("scheduled_at", *patch.ScheduledAt)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE matches SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), matchColumns)

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrMatchNotFound
		}
		return nil, r.handleMatchError(err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrMatchNotFound
		}
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountByStatus(ctx context.Context) (map[models.MatchStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM matches GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MatchStatus]int)
	for rows.Next() {
		var status models.MatchStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanMatch(s rowScanner) (*models.Match, error) {
	var m models.Match
	var boosters, cards, timeline []byte
	err := s.Scan(
		&m.ID, &m.TeamA, &m.TeamB, &m.ScoreA, &m.ScoreB, &m.PCA, &m.PCB, &m.Status, &m.TimeLeft, &m.Maddie,
		&boosters, &cards, &timeline, &m.DivisionID, &m.ScheduledAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Boosters = []models.ActiveBooster{}
	m.Cards = []models.Card{}
	m.Timeline = []models.TimelineEvent{}
	if err := scanJSON(boosters, &m.Boosters); err != nil {
		return nil, err
	}
	if err := scanJSON(cards, &m.Cards); err != nil {
		return nil, err
	}
	if err := scanJSON(timeline, &m.Timeline); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok && pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "matches_division_id_fkey" {
		return ErrMatchDivisionInvalid
	}
	return err
}
