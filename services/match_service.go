package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/metrics"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"github.com/Dosada05/hockey-madness/storage"
)

// Default suspensions for cards issued without an explicit duration. Red cards never expire.
const (
	DefaultGreenCardSeconds  = 2 * 60
	DefaultYellowCardSeconds = 5 * 60
)

// MatchArchiver stores the report of a finished match.
type MatchArchiver interface {
	Archive(ctx context.Context, m *models.Match) (*storage.ArchiveResult, error)
}

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	Get(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error)
	// Live returns the matches currently on the scoreboard (active or paused).
	Live(ctx context.Context) ([]models.Match, error)
	Update(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error)
	Delete(ctx context.Context, id string) error

	Start(ctx context.Context, id string) (*models.Match, error)
	Pause(ctx context.Context, id string) (*models.Match, error)
	Resume(ctx context.Context, id string) (*models.Match, error)
	Finish(ctx context.Context, id string) (*models.Match, error)

	Goal(ctx context.Context, id string, input GoalInput) (*models.Match, error)
	PenaltyCorner(ctx context.Context, id string, team models.Side) (*models.Match, error)
	IssueCard(ctx context.Context, id string, input CardInput) (*models.Match, error)
	ActivateBooster(ctx context.Context, id string, input BoosterActivationInput) (*models.Match, error)
	ActivateMaddie(ctx context.Context, id string, boosterID string) (*models.Match, error)
	SetTimeLeft(ctx context.Context, id string, seconds int) (*models.Match, error)
}

type CreateMatchInput struct {
	TeamA       string     `json:"team_a" validate:"required,max=100"`
	TeamB       string     `json:"team_b" validate:"required,max=100"`
	TimeLeft    int        `json:"time_left" validate:"min=0"`
	DivisionID  *string    `json:"division_id,omitempty" validate:"omitempty,uuid"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type GoalInput struct {
	Team models.Side `json:"team" validate:"required,oneof=a b"`
	// FromPC marks a goal scored from a penalty corner.
	FromPC bool `json:"from_pc"`
}

type CardInput struct {
	Team            models.Side     `json:"team" validate:"required,oneof=a b"`
	Type            models.CardType `json:"card_type" validate:"required,oneof=yellow green red"`
	PlayerName      string          `json:"player_name" validate:"required,max=100"`
	PlayerNumber    string          `json:"player_number" validate:"required,max=10"`
	DurationSeconds *int            `json:"duration_seconds,omitempty" validate:"omitempty,min=1"`
}

type BoosterActivationInput struct {
	Team      models.Side `json:"team" validate:"required,oneof=a b"`
	BoosterID string      `json:"booster_id" validate:"required"`
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	boosterRepo repositories.BoosterRepository
	pub         events.Publisher
	archiver    MatchArchiver
	logger      *slog.Logger
}

// NewMatchService wires match control. archiver may be nil when no report storage is configured.
func NewMatchService(
	matchRepo repositories.MatchRepository,
	boosterRepo repositories.BoosterRepository,
	pub events.Publisher,
	archiver MatchArchiver,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		boosterRepo: boosterRepo,
		pub:         pub,
		archiver:    archiver,
		logger:      logger.With(slog.String("component", "match")),
	}
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.TeamA == input.TeamB {
		return nil, ErrMatchSameTeams
	}

	m := &models.Match{
		TeamA:       input.TeamA,
		TeamB:       input.TeamB,
		Status:      models.MatchStatusPending,
		TimeLeft:    input.TimeLeft,
		Boosters:    []models.ActiveBooster{},
		Cards:       []models.Card{},
		Timeline:    []models.TimelineEvent{},
		DivisionID:  input.DivisionID,
		ScheduledAt: input.ScheduledAt,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.publish(ctx, m, nil)
	return m, nil
}

func (s *matchService) Get(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return m, nil
}

func (s *matchService) List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, *filter.Status)
	}
	return s.matchRepo.List(ctx, filter)
}

func (s *matchService) Live(ctx context.Context) ([]models.Match, error) {
	all, err := s.matchRepo.List(ctx, models.MatchFilter{})
	if err != nil {
		return nil, err
	}
	live := make([]models.Match, 0)
	for _, m := range all {
		if m.Status == models.MatchStatusActive || m.Status == models.MatchStatusPaused {
			live = append(live, m)
		}
	}
	return live, nil
}

// Update applies a raw field-level patch. Concurrent edits are last-write-wins.
func (s *matchService) Update(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, *patch.Status)
	}
	m, err := s.matchRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	s.publish(ctx, m, nil)
	return m, nil
}

func (s *matchService) Delete(ctx context.Context, id string) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	if err := s.pub.Publish(ctx, events.TopicMatchDeleted, events.MatchDeleted{MatchID: id}); err != nil {
		s.logger.Error("failed to publish match deletion", slog.String("match_id", id), slog.Any("error", err))
	}
	return nil
}

var statusTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusPending: {models.MatchStatusActive},
	models.MatchStatusActive:  {models.MatchStatusPaused, models.MatchStatusFinished},
	models.MatchStatusPaused:  {models.MatchStatusActive, models.MatchStatusFinished},
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	for _, s := range statusTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func (s *matchService) Start(ctx context.Context, id string) (*models.Match, error) {
	return s.transition(ctx, id, models.MatchStatusPending, models.MatchStatusActive, models.EventMatchStarted)
}

func (s *matchService) Pause(ctx context.Context, id string) (*models.Match, error) {
	return s.transition(ctx, id, models.MatchStatusActive, models.MatchStatusPaused, models.EventMatchPaused)
}

func (s *matchService) Resume(ctx context.Context, id string) (*models.Match, error) {
	return s.transition(ctx, id, models.MatchStatusPaused, models.MatchStatusActive, models.EventMatchResumed)
}

// Finish ends the match and archives its report when storage is configured.
func (s *matchService) Finish(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.transition(ctx, id, "", models.MatchStatusFinished, models.EventMatchFinished)
	if err != nil {
		return nil, err
	}
	if s.archiver != nil {
		res, err := s.archiver.Archive(ctx, m)
		if err != nil {
			s.logger.Error("failed to archive match report", slog.String("match_id", m.ID), slog.Any("error", err))
		} else {
			s.logger.Info("match report archived", slog.String("match_id", m.ID), slog.String("key", res.TextKey))
		}
	}
	return m, nil
}

// transition moves the match to next. from restricts the source status; empty means any status
// the transition table allows.
func (s *matchService) transition(ctx context.Context, id string, from, next models.MatchStatus, typ models.TimelineEventType) (*models.Match, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if (from != "" && m.Status != from) || !isValidMatchTransition(m.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrMatchInvalidTransition, m.Status, next)
	}

	event := models.NewTimelineEvent(typ, nil, models.TimelineDetails{Status: next}, timeLeft(m))
	timeline := append(m.Timeline, event)
	return s.apply(ctx, id, models.MatchPatch{Status: &next, Timeline: &timeline}, &event)
}

func (s *matchService) Goal(ctx context.Context, id string, input GoalInput) (*models.Match, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	m, err := s.running(ctx, id)
	if err != nil {
		return nil, err
	}

	scoreA, scoreB := m.ScoreA, m.ScoreB
	patch := models.MatchPatch{}
	if input.Team == models.SideA {
		scoreA++
		patch.ScoreA = &scoreA
	} else {
		scoreB++
		patch.ScoreB = &scoreB
	}

	team := input.Team
	fromPC := input.FromPC
	event := models.NewTimelineEvent(models.EventGoal, &team, models.TimelineDetails{
		ScoreA: &scoreA,
		ScoreB: &scoreB,
		PC:     &fromPC,
	}, timeLeft(m))
	timeline := append(m.Timeline, event)
	patch.Timeline = &timeline
	return s.apply(ctx, id, patch, &event)
}

func (s *matchService) PenaltyCorner(ctx context.Context, id string, team models.Side) (*models.Match, error) {
	if !team.Valid() {
		return nil, ErrInvalidSide
	}
	m, err := s.running(ctx, id)
	if err != nil {
		return nil, err
	}

	pcA, pcB := m.PCA, m.PCB
	patch := models.MatchPatch{}
	if team == models.SideA {
		pcA++
		patch.PCA = &pcA
	} else {
		pcB++
		patch.PCB = &pcB
	}

	event := models.NewTimelineEvent(models.EventPenaltyCorner, &team, models.TimelineDetails{PCA: &pcA, PCB: &pcB}, timeLeft(m))
	timeline := append(m.Timeline, event)
	patch.Timeline = &timeline
	return s.apply(ctx, id, patch, &event)
}

func (s *matchService) IssueCard(ctx context.Context, id string, input CardInput) (*models.Match, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidCardType
	}
	m, err := s.running(ctx, id)
	if err != nil {
		return nil, err
	}

	duration := cardDuration(input.Type, input.DurationSeconds)
	card := models.Card{
		Team:         input.Team,
		Type:         input.Type,
		PlayerName:   input.PlayerName,
		PlayerNumber: input.PlayerNumber,
		Duration:     duration,
		IssuedAt:     time.Now().UTC(),
	}
	cards := append(m.Cards, card)

	team := input.Team
	event := models.NewTimelineEvent(models.EventCardIssued, &team, models.TimelineDetails{
		CardType:     input.Type,
		PlayerName:   input.PlayerName,
		PlayerNumber: input.PlayerNumber,
		CardDuration: &duration,
	}, timeLeft(m))
	timeline := append(m.Timeline, event)
	return s.apply(ctx, id, models.MatchPatch{Cards: &cards, Timeline: &timeline}, &event)
}

func cardDuration(t models.CardType, seconds *int) models.CardDuration {
	switch {
	case t == models.CardRed:
		return models.CardDuration{}
	case seconds != nil:
		v := *seconds
		return models.CardDuration{Seconds: &v}
	case t == models.CardGreen:
		v := DefaultGreenCardSeconds
		return models.CardDuration{Seconds: &v}
	default:
		v := DefaultYellowCardSeconds
		return models.CardDuration{Seconds: &v}
	}
}

func (s *matchService) ActivateBooster(ctx context.Context, id string, input BoosterActivationInput) (*models.Match, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	booster, err := s.catalogue(ctx, input.BoosterID, models.BoosterKindBooster)
	if err != nil {
		return nil, err
	}
	m, err := s.running(ctx, id)
	if err != nil {
		return nil, err
	}

	team := input.Team
	boosters := append(m.Boosters, models.ActiveBooster{
		Team:            &team,
		BoosterID:       booster.ID,
		Name:            booster.Name,
		Icon:            booster.Icon,
		DurationMinutes: booster.DurationMinutes,
		ActivatedAt:     time.Now().UTC(),
	})
	event := models.NewTimelineEvent(models.EventBoosterActivated, &team, models.TimelineDetails{
		BoosterID:   booster.ID,
		BoosterName: booster.Name,
		BoosterIcon: booster.Icon,
		Minutes:     booster.DurationMinutes,
	}, timeLeft(m))
	timeline := append(m.Timeline, event)
	return s.apply(ctx, id, models.MatchPatch{Boosters: &boosters, Timeline: &timeline}, &event)
}

// ActivateMaddie switches on the match-wide Maddie modifier.
func (s *matchService) ActivateMaddie(ctx context.Context, id string, boosterID string) (*models.Match, error) {
	maddie, err := s.catalogue(ctx, boosterID, models.BoosterKindMaddie)
	if err != nil {
		return nil, err
	}
	m, err := s.running(ctx, id)
	if err != nil {
		return nil, err
	}

	on := true
	boosters := append(m.Boosters, models.ActiveBooster{
		BoosterID:       maddie.ID,
		Name:            maddie.Name,
		Icon:            maddie.Icon,
		DurationMinutes: maddie.DurationMinutes,
		ActivatedAt:     time.Now().UTC(),
	})
	event := models.NewTimelineEvent(models.EventMaddieActivated, nil, models.TimelineDetails{
		MaddieID:   maddie.ID,
		MaddieName: maddie.Name,
		MaddieIcon: maddie.Icon,
		Minutes:    maddie.DurationMinutes,
	}, timeLeft(m))
	timeline := append(m.Timeline, event)
	return s.apply(ctx, id, models.MatchPatch{Maddie: &on, Boosters: &boosters, Timeline: &timeline}, &event)
}

func (s *matchService) SetTimeLeft(ctx context.Context, id string, seconds int) (*models.Match, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("%w: time left cannot be negative", ErrValidationFailed)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == models.MatchStatusFinished {
		return nil, ErrMatchFinished
	}
	return s.apply(ctx, id, models.MatchPatch{TimeLeft: &seconds}, nil)
}

func (s *matchService) running(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case models.MatchStatusActive, models.MatchStatusPaused:
		return m, nil
	case models.MatchStatusFinished:
		return nil, ErrMatchFinished
	default:
		return nil, ErrMatchNotRunning
	}
}

func (s *matchService) catalogue(ctx context.Context, boosterID string, kind models.BoosterKind) (*models.Booster, error) {
	b, err := s.boosterRepo.GetByID(ctx, boosterID)
	if err != nil {
		if errors.Is(err, repositories.ErrBoosterNotFound) {
			return nil, ErrBoosterNotFound
		}
		return nil, err
	}
	if b.Kind != kind {
		return nil, ErrBoosterKindMismatch
	}
	return b, nil
}

func (s *matchService) apply(ctx context.Context, id string, patch models.MatchPatch, event *models.TimelineEvent) (*models.Match, error) {
	m, err := s.matchRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if event != nil {
		metrics.MatchEventsTotal.WithLabelValues(string(event.Type)).Inc()
	}
	s.publish(ctx, m, event)
	return m, nil
}

func (s *matchService) publish(ctx context.Context, m *models.Match, event *models.TimelineEvent) {
	if err := s.pub.Publish(ctx, events.TopicMatchUpdated, events.MatchUpdated{Match: m, Event: event}); err != nil {
		s.logger.Error("failed to publish match update", slog.String("match_id", m.ID), slog.Any("error", err))
	}
}

func timeLeft(m *models.Match) *int {
	t := m.TimeLeft
	return &t
}
