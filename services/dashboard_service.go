package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo       repositories.UserRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
) DashboardService {
	return &dashboardService{
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var byStatus map[models.MatchStatus]int

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.TeamsTotal, err = s.teamRepo.Count(gCtx)
		return err
	})
	g.Go(func() (err error) {
		stats.TournamentsTotal, err = s.tournamentRepo.Count(gCtx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.matchRepo.CountByStatus(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	stats.MatchesPending = byStatus[models.MatchStatusPending]
	stats.MatchesLive = byStatus[models.MatchStatusActive] + byStatus[models.MatchStatusPaused]
	stats.MatchesFinished = byStatus[models.MatchStatusFinished]
	return stats, nil
}
