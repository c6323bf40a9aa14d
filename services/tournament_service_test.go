package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/hockey-madness/models"
)

const (
	teamLokeren  = "10000000-0000-0000-0000-000000000001"
	teamDaring   = "10000000-0000-0000-0000-000000000002"
	teamGantoise = "10000000-0000-0000-0000-000000000003"
)

func finishedMatch(a, b string, scoreA, scoreB int) models.Match {
	return models.Match{TeamA: a, TeamB: b, ScoreA: scoreA, ScoreB: scoreB, Status: models.MatchStatusFinished}
}

func TestComputeStandings(t *testing.T) {
	teams := []models.Team{
		{ID: teamLokeren, Name: "HC Lokeren"},
		{ID: teamDaring, Name: "Royal Daring"},
		{ID: teamGantoise, Name: "La Gantoise"},
	}
	matches := []models.Match{
		finishedMatch("HC Lokeren", "Royal Daring", 3, 1),
		finishedMatch(teamDaring, teamGantoise, 2, 2),
		finishedMatch("la gantoise", "HC Lokeren", 0, 1),
		finishedMatch("HC Lokeren", "Somebody Else", 9, 0),
		{TeamA: "HC Lokeren", TeamB: "Royal Daring", ScoreA: 0, ScoreB: 5, Status: models.MatchStatusActive},
	}

	table := ComputeStandings(teams, matches, discardLogger())
	if len(table) != 3 {
		t.Fatalf("rows = %d", len(table))
	}

	want := []struct {
		name           string
		played, points int
		gd             int
	}{
		{"HC Lokeren", 2, 6, 3},
		// level on points with Daring, better goal difference
		{"La Gantoise", 2, 1, -1},
		{"Royal Daring", 2, 1, -2},
	}
	for i, w := range want {
		row := table[i]
		if row.TeamName != w.name || row.Played != w.played || row.Points != w.points || row.GoalDifference() != w.gd {
			t.Errorf("row %d = %+v (gd %d), want %+v", i, row, row.GoalDifference(), w)
		}
	}
}

func TestComputeStandings_TieBreakers(t *testing.T) {
	teams := []models.Team{
		{ID: "1", Name: "Bravo"},
		{ID: "2", Name: "Alpha"},
		{ID: "3", Name: "Charlie"},
		{ID: "4", Name: "Delta"},
	}
	matches := []models.Match{
		finishedMatch("1", "3", 4, 2),
		finishedMatch("2", "4", 2, 0),
	}
	table := ComputeStandings(teams, matches, nil)

	// Bravo and Alpha: 3 points, +2 each; Bravo scored more. Same for Charlie over Delta.
	order := []string{"Bravo", "Alpha", "Charlie", "Delta"}
	for i, name := range order {
		if table[i].TeamName != name {
			t.Errorf("position %d = %s, want %s", i, table[i].TeamName, name)
		}
	}

	empty := ComputeStandings(teams[:2], nil, nil)
	if empty[0].TeamName != "Alpha" || empty[0].Played != 0 {
		t.Errorf("empty table = %+v", empty)
	}
}

func TestTournamentService_DivisionLifecycle(t *testing.T) {
	tournaments := newStubTournamentRepo()
	teams := newStubTeamRepo(
		models.Team{ID: teamLokeren, Name: "HC Lokeren"},
		models.Team{ID: teamDaring, Name: "Royal Daring"},
	)
	matches := newStubMatchRepo()
	svc := NewTournamentService(tournaments, teams, matches, discardLogger())
	ctx := context.Background()

	tour, err := svc.Create(ctx, CreateTournamentInput{Name: "  Spring Cup "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tour.Name != "Spring Cup" || tour.Status != models.TournamentStatusDraft {
		t.Errorf("tournament = %+v", tour)
	}

	div, err := svc.CreateDivision(ctx, tour.ID, DivisionInput{Name: "U12", TeamIDs: []string{teamLokeren, teamDaring, teamLokeren}})
	if err != nil {
		t.Fatalf("CreateDivision: %v", err)
	}
	if len(div.TeamIDs) != 2 {
		t.Errorf("team ids = %v", div.TeamIDs)
	}
	if _, err := svc.CreateDivision(ctx, tour.ID, DivisionInput{Name: "U12"}); !errors.Is(err, ErrDivisionNameConflict) {
		t.Errorf("duplicate division: err = %v", err)
	}
	if _, err := svc.CreateDivision(ctx, "missing", DivisionInput{Name: "U14"}); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("missing tournament: err = %v", err)
	}
	if _, err := svc.AssignTeams(ctx, div.ID, []string{"not-a-uuid"}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("bad team id: err = %v", err)
	}

	divID := div.ID
	m := finishedMatch("HC Lokeren", "Royal Daring", 2, 2)
	m.DivisionID = &divID
	matches.Create(ctx, &m)
	other := finishedMatch("HC Lokeren", "Royal Daring", 5, 0)
	matches.Create(ctx, &other)

	list, err := svc.DivisionMatches(ctx, div.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("DivisionMatches = %v, %v", list, err)
	}

	table, err := svc.Standings(ctx, div.ID)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	for _, row := range table {
		if row.Points != PointsDraw || row.Drawn != 1 {
			t.Errorf("row = %+v", row)
		}
	}

	got, err := svc.Get(ctx, tour.ID)
	if err != nil || len(got.Divisions) != 1 {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	updated, err := svc.UpdateStatus(ctx, tour.ID, models.TournamentStatusActive)
	if err != nil || updated.Status != models.TournamentStatusActive {
		t.Fatalf("UpdateStatus = %+v, %v", updated, err)
	}
	if _, err := svc.UpdateStatus(ctx, tour.ID, "archived"); !errors.Is(err, ErrTournamentInvalidStatus) {
		t.Errorf("bad status: err = %v", err)
	}
	if _, err := svc.Standings(ctx, "missing"); !errors.Is(err, ErrDivisionNotFound) {
		t.Errorf("missing division: err = %v", err)
	}
}

func TestTournamentService_GenerateSchedule(t *testing.T) {
	tournaments := newStubTournamentRepo()
	teams := newStubTeamRepo(
		models.Team{ID: teamLokeren, Name: "HC Lokeren"},
		models.Team{ID: teamDaring, Name: "Royal Daring"},
		models.Team{ID: teamGantoise, Name: "La Gantoise"},
	)
	matches := newStubMatchRepo()
	svc := NewTournamentService(tournaments, teams, matches, discardLogger())
	ctx := context.Background()

	tour, err := svc.Create(ctx, CreateTournamentInput{Name: "Winter Cup"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	div, err := svc.CreateDivision(ctx, tour.ID, DivisionInput{Name: "U10", TeamIDs: []string{teamLokeren}})
	if err != nil {
		t.Fatalf("CreateDivision: %v", err)
	}
	if _, err := svc.GenerateSchedule(ctx, div.ID, ScheduleInput{}); !errors.Is(err, ErrScheduleNeedsTeams) {
		t.Errorf("single team: err = %v", err)
	}
	if _, err := svc.GenerateSchedule(ctx, div.ID, ScheduleInput{Legs: 3}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("three legs: err = %v", err)
	}

	if _, err := svc.AssignTeams(ctx, div.ID, []string{teamLokeren, teamDaring, teamGantoise}); err != nil {
		t.Fatalf("AssignTeams: %v", err)
	}
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	created, err := svc.GenerateSchedule(ctx, div.ID, ScheduleInput{Legs: 2, StartAt: &start, IntervalMinutes: 30, MatchSeconds: 1200})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("matches = %d, want 6", len(created))
	}
	for _, m := range created {
		if m.Status != models.MatchStatusPending || m.TimeLeft != 1200 || m.DivisionID == nil || *m.DivisionID != div.ID {
			t.Errorf("match = %+v", m)
		}
		if m.ScheduledAt == nil || m.ScheduledAt.Before(start) {
			t.Errorf("scheduled at = %v", m.ScheduledAt)
		}
	}
	if last := created[len(created)-1].ScheduledAt; !last.Equal(start.Add(5 * 30 * time.Minute)) {
		t.Errorf("last round at %v", last)
	}

	if _, err := svc.GenerateSchedule(ctx, div.ID, ScheduleInput{}); !errors.Is(err, ErrScheduleExists) {
		t.Errorf("second run: err = %v", err)
	}
}
