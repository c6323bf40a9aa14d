package services

import (
	"context"
	"testing"

	"github.com/Dosada05/hockey-madness/models"
)

func TestDashboardService_GetStats(t *testing.T) {
	users := newStubUserRepo()
	users.add(t, "a@example.com", "secret123", models.RoleAdmin)
	teams := newStubTeamRepo(models.Team{ID: teamLokeren, Name: "HC Lokeren"}, models.Team{ID: teamDaring, Name: "Royal Daring"})
	tournaments := newStubTournamentRepo()
	tournaments.Create(context.Background(), &models.Tournament{Name: "Cup"})
	matches := newStubMatchRepo()
	for _, st := range []models.MatchStatus{models.MatchStatusPending, models.MatchStatusActive, models.MatchStatusPaused, models.MatchStatusFinished, models.MatchStatusFinished} {
		matches.Create(context.Background(), &models.Match{TeamA: "A", TeamB: "B", Status: st})
	}

	stats, err := NewDashboardService(users, teams, tournaments, matches).GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := models.DashboardStats{UsersTotal: 1, TeamsTotal: 2, TournamentsTotal: 1, MatchesPending: 1, MatchesLive: 2, MatchesFinished: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
