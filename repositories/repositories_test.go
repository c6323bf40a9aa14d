package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/lib/pq"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var matchRowColumns = []string{
	"id", "team_a", "team_b", "score_a", "score_b", "pc_a", "pc_b", "status", "time_left", "maddie",
	"boosters", "cards", "timeline", "division_id", "scheduled_at", "created_at",
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("coach@example.com", "hash", models.RoleTeam, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", now))

	user := &models.User{Email: "coach@example.com", PasswordHash: "hash", Role: models.RoleTeam}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u-1" || !user.CreatedAt.Equal(now) {
		t.Errorf("returned columns not scanned: %+v", user)
	}
}

func TestUserRepository_CreateEmailConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Email: "dup@example.com", Role: models.RoleUser})
	if !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("expected ErrUserEmailConflict, got %v", err)
	}
}

func TestUserRepository_GetProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)
	team := "t-1"

	mock.ExpectQuery("SELECT id, email, role, assigned_team_id FROM users WHERE id = \\$1").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "assigned_team_id"}).
			AddRow("u-1", "coach@example.com", "team", team))

	p, err := repo.GetProfile(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != models.RoleTeam || p.AssignedTeamID == nil || *p.AssignedTeamID != team {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestUserRepository_GetProfileNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery("SELECT id, email, role, assigned_team_id FROM users").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetProfile(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_ListFiltersAndPaginates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)
	role := models.RoleAdmin
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE role = \\$1").
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT .+ FROM users WHERE role = \\$1 ORDER BY created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs(role, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "assigned_team_id", "created_at"}).
			AddRow("u-3", "c@example.com", "h", "admin", nil, now))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role, Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(users) != 1 || users[0].ID != "u-3" {
		t.Errorf("unexpected result: total=%d users=%+v", total, users)
	}
}

func TestUserRepository_UpdateAccessNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec("UPDATE users SET role = \\$1, assigned_team_id = \\$2 WHERE id = \\$3").
		WithArgs(models.RoleUser, nil, "u-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateAccess(context.Background(), "u-9", models.RoleUser, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTeamRepository_GetByIDDecodesPlayers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTeamRepository(db)

	mock.ExpectQuery("SELECT id, name, players, logo_url, created_at FROM teams WHERE id = \\$1").
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "players", "logo_url", "created_at"}).
			AddRow("t-1", "HC Lokeren", []byte(`[{"name":"Ann","number":"7"}]`), nil, time.Now()))

	team, err := repo.GetByID(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(team.Players) != 1 || team.Players[0].Number != "7" {
		t.Errorf("players not decoded: %+v", team.Players)
	}
}

func TestTeamRepository_InvalidIDIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTeamRepository(db)

	mock.ExpectQuery("SELECT .+ FROM teams WHERE id = \\$1").
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: pqInvalidTextRep})

	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestMatchRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)
	now := time.Now()

	cards := []byte(`[{"team":"a","card_type":"red","player_name":"Ann","player_number":"7","duration":null,"issued_at":"2024-01-01T00:00:00Z"}]`)
	mock.ExpectQuery("SELECT .+ FROM matches WHERE id = \\$1").
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows(matchRowColumns).
			AddRow("m-1", "Lions", "Tigers", 2, 1, 3, 0, "active", 900, false,
				[]byte(`[]`), cards, []byte(`[]`), nil, nil, now))

	m, err := repo.GetByID(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != models.MatchStatusActive || m.ScoreA != 2 || m.PCA != 3 {
		t.Errorf("unexpected match: %+v", m)
	}
	if len(m.Cards) != 1 || m.Cards[0].Type != models.CardRed || m.Cards[0].Duration.Seconds != nil {
		t.Errorf("cards not decoded: %+v", m.Cards)
	}
	if m.Boosters == nil || m.Timeline == nil {
		t.Error("expected empty, non-nil slices")
	}
}

func TestMatchRepository_UpdateOnlyTouchesPatchedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)
	score := 3
	status := models.MatchStatusPaused

	mock.ExpectQuery("UPDATE matches SET score_a = \\$1, status = \\$2 WHERE id = \\$3 RETURNING").
		WithArgs(score, status, "m-1").
		WillReturnRows(sqlmock.NewRows(matchRowColumns).
			AddRow("m-1", "Lions", "Tigers", 3, 1, 0, 0, "paused", 600, false,
				[]byte(`[]`), []byte(`[]`), []byte(`[]`), nil, nil, time.Now()))

	m, err := repo.Update(context.Background(), "m-1", models.MatchPatch{ScoreA: &score, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ScoreA != 3 || m.Status != models.MatchStatusPaused {
		t.Errorf("unexpected match: %+v", m)
	}
}

func TestMatchRepository_UpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)
	maddie := true

	mock.ExpectQuery("UPDATE matches SET maddie = \\$1 WHERE id = \\$2").
		WithArgs(maddie, "m-404").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Update(context.Background(), "m-404", models.MatchPatch{Maddie: &maddie}); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestMatchRepository_CountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM matches GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("active", 1))

	counts, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[models.MatchStatusPending] != 4 || counts[models.MatchStatusActive] != 1 || counts[models.MatchStatusFinished] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestTournamentRepository_GetDivision(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectQuery("SELECT d.id, d.tournament_id, d.name, d.created_at").
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "name", "created_at", "team_ids"}).
			AddRow("d-1", "tr-1", "U12", time.Now(), "{t-1,t-2}"))

	d, err := repo.GetDivision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.TeamIDs) != 2 || d.TeamIDs[1] != "t-2" {
		t.Errorf("team ids not scanned: %v", d.TeamIDs)
	}
}

func TestTournamentRepository_SetDivisionTeams(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM division_teams WHERE division_id = \\$1").
		WithArgs("d-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO division_teams").
		WithArgs("d-1", "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO division_teams").
		WithArgs("d-1", "t-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SetDivisionTeams(context.Background(), "d-1", []string{"t-1", "t-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTournamentRepository_SetDivisionTeamsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM division_teams").
		WithArgs("d-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO division_teams").
		WithArgs("d-1", "ghost").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "division_teams_team_id_fkey"})
	mock.ExpectRollback()

	err := repo.SetDivisionTeams(context.Background(), "d-1", []string{"ghost"})
	if !errors.Is(err, ErrDivisionTeamInvalid) {
		t.Fatalf("expected ErrDivisionTeamInvalid, got %v", err)
	}
}

func TestBoosterRepository_ListByKind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresBoosterRepository(db)
	kind := models.BoosterKindMaddie
	minutes := 2

	mock.ExpectQuery("SELECT .+ FROM boosters WHERE kind = \\$1 ORDER BY name ASC").
		WithArgs(kind).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "icon", "description", "duration_minutes", "kind", "created_at"}).
			AddRow("b-1", "Maddie", "🔥", "Double goals", minutes, "maddie", time.Now()))

	boosters, err := repo.List(context.Background(), &kind)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boosters) != 1 || boosters[0].DurationMinutes == nil || *boosters[0].DurationMinutes != 2 {
		t.Errorf("unexpected boosters: %+v", boosters)
	}
}
