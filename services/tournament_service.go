package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/hockey-madness/fixtures"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"golang.org/x/sync/errgroup"
)

// Очки за результат матча в таблице дивизиона.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error)
	Delete(ctx context.Context, id string) error

	CreateDivision(ctx context.Context, tournamentID string, input DivisionInput) (*models.Division, error)
	GetDivision(ctx context.Context, id string) (*models.Division, error)
	AssignTeams(ctx context.Context, divisionID string, teamIDs []string) (*models.Division, error)
	DeleteDivision(ctx context.Context, id string) error
	DivisionMatches(ctx context.Context, divisionID string) ([]models.Match, error)
	Standings(ctx context.Context, divisionID string) ([]models.Standing, error)
	// GenerateSchedule creates the pending round-robin matches of a division that has none yet.
	GenerateSchedule(ctx context.Context, divisionID string, input ScheduleInput) ([]models.Match, error)
}

type CreateTournamentInput struct {
	Name      string     `json:"name" validate:"required,max=150"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

type DivisionInput struct {
	Name    string   `json:"name" validate:"required,max=100"`
	TeamIDs []string `json:"team_ids" validate:"dive,uuid"`
}

// ScheduleInput configures a generated schedule. Rounds start IntervalMinutes apart from StartAt;
// without StartAt matches are left unscheduled.
type ScheduleInput struct {
	Legs            int        `json:"legs" validate:"omitempty,oneof=1 2"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	IntervalMinutes int        `json:"interval_minutes" validate:"min=0,max=10080"`
	MatchSeconds    int        `json:"match_seconds" validate:"min=0,max=7200"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	generator      fixtures.Generator
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		generator:      fixtures.NewRoundRobinGenerator(),
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	t := &models.Tournament{Name: input.Name, StartDate: input.StartDate, Status: models.TournamentStatusDraft}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	t.Divisions = []models.Division{}
	return t, nil
}

// Get загружает турнир вместе с дивизионами.
func (s *tournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	var t *models.Tournament
	var divisions []models.Division

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.tournamentRepo.GetByID(gCtx, id)
		return err
	})
	g.Go(func() error {
		var err error
		divisions, err = s.tournamentRepo.ListDivisions(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err)
	}

	t.Divisions = divisions
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	if status != nil && !validTournamentStatus(*status) {
		return nil, ErrTournamentInvalidStatus
	}
	return s.tournamentRepo.List(ctx, status)
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error) {
	if !validTournamentStatus(status) {
		return nil, ErrTournamentInvalidStatus
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.Get(ctx, id)
}

func (s *tournamentService) Delete(ctx context.Context, id string) error {
	return handleRepositoryError(s.tournamentRepo.Delete(ctx, id))
}

func (s *tournamentService) CreateDivision(ctx context.Context, tournamentID string, input DivisionInput) (*models.Division, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}

	d := &models.Division{TournamentID: tournamentID, Name: input.Name}
	if err := s.tournamentRepo.CreateDivision(ctx, d); err != nil {
		return nil, handleRepositoryError(err)
	}
	if len(input.TeamIDs) > 0 {
		return s.AssignTeams(ctx, d.ID, input.TeamIDs)
	}
	return d, nil
}

func (s *tournamentService) GetDivision(ctx context.Context, id string) (*models.Division, error) {
	d, err := s.tournamentRepo.GetDivision(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return d, nil
}

// AssignTeams заменяет состав дивизиона; повторы в списке игнорируются.
func (s *tournamentService) AssignTeams(ctx context.Context, divisionID string, teamIDs []string) (*models.Division, error) {
	if err := validate.Var(teamIDs, "dive,uuid"); err != nil {
		return nil, fmt.Errorf("%w: team ids must be uuids", ErrValidationFailed)
	}
	seen := make(map[string]bool, len(teamIDs))
	unique := make([]string, 0, len(teamIDs))
	for _, id := range teamIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	if err := s.tournamentRepo.SetDivisionTeams(ctx, divisionID, unique); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.GetDivision(ctx, divisionID)
}

func (s *tournamentService) DeleteDivision(ctx context.Context, id string) error {
	return handleRepositoryError(s.tournamentRepo.DeleteDivision(ctx, id))
}

func (s *tournamentService) DivisionMatches(ctx context.Context, divisionID string) ([]models.Match, error) {
	if _, err := s.GetDivision(ctx, divisionID); err != nil {
		return nil, err
	}
	return s.matchRepo.List(ctx, models.MatchFilter{DivisionID: &divisionID})
}

// Standings строит таблицу дивизиона по завершённым матчам.
func (s *tournamentService) Standings(ctx context.Context, divisionID string) ([]models.Standing, error) {
	division, err := s.GetDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	var matches []models.Match
	finished := models.MatchStatusFinished

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByIDs(gCtx, division.TeamIDs)
		if err != nil {
			return fmt.Errorf("failed to load division teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, models.MatchFilter{DivisionID: &divisionID, Status: &finished})
		if err != nil {
			return fmt.Errorf("failed to load division matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ComputeStandings(teams, matches, s.logger), nil
}

func (s *tournamentService) GenerateSchedule(ctx context.Context, divisionID string, input ScheduleInput) ([]models.Match, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.Legs == 0 {
		input.Legs = 1
	}

	division, err := s.GetDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if len(division.TeamIDs) < 2 {
		return nil, ErrScheduleNeedsTeams
	}

	var teams []models.Team
	var existing []models.Match

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByIDs(gCtx, division.TeamIDs)
		if err != nil {
			return fmt.Errorf("failed to load division teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		existing, err = s.matchRepo.List(gCtx, models.MatchFilter{DivisionID: &divisionID})
		if err != nil {
			return fmt.Errorf("failed to load division matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrScheduleExists
	}

	// Матчи хранят названия команд, как и при ручном создании
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.Name)
	}
	if len(names) < 2 {
		return nil, ErrScheduleNeedsTeams
	}

	plan, err := s.generator.Generate(names, input.Legs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	matches := make([]models.Match, 0, len(plan))
	for _, f := range plan {
		m := &models.Match{
			TeamA:      f.Home,
			TeamB:      f.Away,
			Status:     models.MatchStatusPending,
			TimeLeft:   input.MatchSeconds,
			Boosters:   []models.ActiveBooster{},
			Cards:      []models.Card{},
			Timeline:   []models.TimelineEvent{},
			DivisionID: &divisionID,
		}
		if input.StartAt != nil {
			at := input.StartAt.Add(time.Duration(f.Round-1) * time.Duration(input.IntervalMinutes) * time.Minute)
			m.ScheduledAt = &at
		}
		if err := s.matchRepo.Create(ctx, m); err != nil {
			// Уже созданные матчи остаются: повторный вызов вернет ErrScheduleExists, их можно удалить вручную.
			s.logger.Error("schedule generation interrupted",
				slog.String("division_id", divisionID),
				slog.Int("created", len(matches)),
				slog.Any("error", err))
			return nil, handleRepositoryError(err)
		}
		matches = append(matches, *m)
	}

	s.logger.Info("division schedule generated",
		slog.String("division_id", divisionID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("matches", len(matches)))
	return matches, nil
}

// ComputeStandings ranks teams by points, then goal difference, then goals scored, then name.
// Match sides reference a team by id or by name; matches involving unknown teams are skipped.
func ComputeStandings(teams []models.Team, matches []models.Match, logger *slog.Logger) []models.Standing {
	rows := make(map[string]*models.Standing, len(teams))
	lookup := make(map[string]string, len(teams)*2)
	for _, t := range teams {
		rows[t.ID] = &models.Standing{TeamID: t.ID, TeamName: t.Name}
		lookup[t.ID] = t.ID
		lookup[strings.ToLower(t.Name)] = t.ID
	}
	resolve := func(ref string) (string, bool) {
		if id, ok := lookup[ref]; ok {
			return id, true
		}
		id, ok := lookup[strings.ToLower(ref)]
		return id, ok
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusFinished {
			continue
		}
		a, okA := resolve(m.TeamA)
		b, okB := resolve(m.TeamB)
		if !okA || !okB {
			if logger != nil {
				logger.Warn("skipping match with team outside the division", slog.String("match_id", m.ID))
			}
			continue
		}
		record(rows[a], m.ScoreA, m.ScoreB)
		record(rows[b], m.ScoreB, m.ScoreA)
	}

	table := make([]models.Standing, 0, len(rows))
	for _, r := range rows {
		table = append(table, *r)
	}
	sort.Slice(table, func(i, j int) bool {
		x, y := table[i], table[j]
		if x.Points != y.Points {
			return x.Points > y.Points
		}
		if x.GoalDifference() != y.GoalDifference() {
			return x.GoalDifference() > y.GoalDifference()
		}
		if x.GoalsFor != y.GoalsFor {
			return x.GoalsFor > y.GoalsFor
		}
		return x.TeamName < y.TeamName
	})
	return table
}

func record(s *models.Standing, scored, conceded int) {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		s.Won++
		s.Points += PointsWin
	case scored == conceded:
		s.Drawn++
		s.Points += PointsDraw
	default:
		s.Lost++
		s.Points += PointsLoss
	}
}

func validTournamentStatus(s models.TournamentStatus) bool {
	switch s {
	case models.TournamentStatusDraft, models.TournamentStatusActive, models.TournamentStatusCompleted:
		return true
	}
	return false
}
