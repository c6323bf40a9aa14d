package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*models.User)}
}

// add stores a user with a cheap bcrypt hash of password.
func (r *stubUserRepo) add(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", r.seq)
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Profile{ID: u.ID, Email: u.Email, Role: u.Role, AssignedTeamID: u.AssignedTeamID}, nil
}

func (r *stubUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		if filter.Role == nil || u.Role == *filter.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *stubUserRepo) UpdateAccess(_ context.Context, id string, role models.Role, teamID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Role = role
	u.AssignedTeamID = teamID
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) Count(_ context.Context, role *models.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if role == nil || u.Role == *role {
			n++
		}
	}
	return n, nil
}

type stubTeamRepo struct {
	teams map[string]*models.Team
}

func newStubTeamRepo(teams ...models.Team) *stubTeamRepo {
	r := &stubTeamRepo{teams: make(map[string]*models.Team)}
	for i := range teams {
		t := teams[i]
		r.teams[t.ID] = &t
	}
	return r
}

func (r *stubTeamRepo) Create(_ context.Context, team *models.Team) error {
	for _, t := range r.teams {
		if t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = fmt.Sprintf("10000000-0000-0000-0000-%012d", len(r.teams)+1)
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r *stubTeamRepo) GetByID(_ context.Context, id string) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTeamRepo) List(_ context.Context) ([]models.Team, error) {
	out := []models.Team{}
	for _, t := range r.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTeamRepo) ListByIDs(_ context.Context, ids []string) ([]models.Team, error) {
	out := []models.Team{}
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTeamRepo) Update(_ context.Context, team *models.Team) error {
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r *stubTeamRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *stubTeamRepo) Count(_ context.Context) (int, error) { return len(r.teams), nil }

// stubMatchRepo applies patches the same way the Postgres repository does: only set fields change.
type stubMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*models.Match
	seq     int
}

func newStubMatchRepo() *stubMatchRepo {
	return &stubMatchRepo{matches: make(map[string]*models.Match)}
}

func (r *stubMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = fmt.Sprintf("20000000-0000-0000-0000-%012d", r.seq)
	m.CreatedAt = time.Now()
	cp := *m
	r.matches[m.ID] = &cp
	return nil
}

func (r *stubMatchRepo) GetByID(_ context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *stubMatchRepo) List(_ context.Context, filter models.MatchFilter) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Match{}
	for _, m := range r.matches {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.DivisionID != nil && (m.DivisionID == nil || *m.DivisionID != *filter.DivisionID) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubMatchRepo) Update(_ context.Context, id string, p models.MatchPatch) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	if p.TeamA != nil {
		m.TeamA = *p.TeamA
	}
	if p.TeamB != nil {
		m.TeamB = *p.TeamB
	}
	if p.ScoreA != nil {
		m.ScoreA = *p.ScoreA
	}
	if p.ScoreB != nil {
		m.ScoreB = *p.ScoreB
	}
	if p.PCA != nil {
		m.PCA = *p.PCA
	}
	if p.PCB != nil {
		m.PCB = *p.PCB
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.TimeLeft != nil {
		m.TimeLeft = *p.TimeLeft
	}
	if p.Maddie != nil {
		m.Maddie = *p.Maddie
	}
	if p.Boosters != nil {
		m.Boosters = *p.Boosters
	}
	if p.Cards != nil {
		m.Cards = *p.Cards
	}
	if p.Timeline != nil {
		m.Timeline = *p.Timeline
	}
	if p.DivisionID != nil {
		m.DivisionID = p.DivisionID
	}
	if p.ScheduledAt != nil {
		m.ScheduledAt = p.ScheduledAt
	}
	cp := *m
	return &cp, nil
}

func (r *stubMatchRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r *stubMatchRepo) CountByStatus(_ context.Context) (map[models.MatchStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.MatchStatus]int{}
	for _, m := range r.matches {
		out[m.Status]++
	}
	return out, nil
}

type stubBoosterRepo struct {
	boosters map[string]*models.Booster
}

func newStubBoosterRepo(boosters ...models.Booster) *stubBoosterRepo {
	r := &stubBoosterRepo{boosters: make(map[string]*models.Booster)}
	for i := range boosters {
		b := boosters[i]
		r.boosters[b.ID] = &b
	}
	return r
}

func (r *stubBoosterRepo) Create(_ context.Context, b *models.Booster) error {
	b.ID = fmt.Sprintf("30000000-0000-0000-0000-%012d", len(r.boosters)+1)
	cp := *b
	r.boosters[b.ID] = &cp
	return nil
}

func (r *stubBoosterRepo) GetByID(_ context.Context, id string) (*models.Booster, error) {
	b, ok := r.boosters[id]
	if !ok {
		return nil, repositories.ErrBoosterNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBoosterRepo) List(_ context.Context, kind *models.BoosterKind) ([]models.Booster, error) {
	out := []models.Booster{}
	for _, b := range r.boosters {
		if kind == nil || b.Kind == *kind {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBoosterRepo) Update(_ context.Context, b *models.Booster) error {
	if _, ok := r.boosters[b.ID]; !ok {
		return repositories.ErrBoosterNotFound
	}
	cp := *b
	r.boosters[b.ID] = &cp
	return nil
}

func (r *stubBoosterRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.boosters[id]; !ok {
		return repositories.ErrBoosterNotFound
	}
	delete(r.boosters, id)
	return nil
}

type stubTournamentRepo struct {
	tournaments map[string]*models.Tournament
	divisions   map[string]*models.Division
}

func newStubTournamentRepo() *stubTournamentRepo {
	return &stubTournamentRepo{
		tournaments: make(map[string]*models.Tournament),
		divisions:   make(map[string]*models.Division),
	}
}

func (r *stubTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	t.ID = fmt.Sprintf("40000000-0000-0000-0000-%012d", len(r.tournaments)+1)
	cp := *t
	r.tournaments[t.ID] = &cp
	return nil
}

func (r *stubTournamentRepo) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTournamentRepo) List(_ context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	out := []models.Tournament{}
	for _, t := range r.tournaments {
		if status == nil || t.Status == *status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTournamentRepo) UpdateStatus(_ context.Context, id string, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *stubTournamentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *stubTournamentRepo) Count(_ context.Context) (int, error) { return len(r.tournaments), nil }

func (r *stubTournamentRepo) CreateDivision(_ context.Context, d *models.Division) error {
	if _, ok := r.tournaments[d.TournamentID]; !ok {
		return repositories.ErrDivisionTournamentNotSet
	}
	for _, existing := range r.divisions {
		if existing.TournamentID == d.TournamentID && existing.Name == d.Name {
			return repositories.ErrDivisionNameConflict
		}
	}
	d.ID = fmt.Sprintf("50000000-0000-0000-0000-%012d", len(r.divisions)+1)
	d.TeamIDs = []string{}
	cp := *d
	r.divisions[d.ID] = &cp
	return nil
}

func (r *stubTournamentRepo) GetDivision(_ context.Context, id string) (*models.Division, error) {
	d, ok := r.divisions[id]
	if !ok {
		return nil, repositories.ErrDivisionNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubTournamentRepo) ListDivisions(_ context.Context, tournamentID string) ([]models.Division, error) {
	out := []models.Division{}
	for _, d := range r.divisions {
		if d.TournamentID == tournamentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubTournamentRepo) SetDivisionTeams(_ context.Context, divisionID string, teamIDs []string) error {
	d, ok := r.divisions[divisionID]
	if !ok {
		return repositories.ErrDivisionNotFound
	}
	d.TeamIDs = append([]string{}, teamIDs...)
	return nil
}

func (r *stubTournamentRepo) DeleteDivision(_ context.Context, id string) error {
	if _, ok := r.divisions[id]; !ok {
		return repositories.ErrDivisionNotFound
	}
	delete(r.divisions, id)
	return nil
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() (string, any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return "", nil
	}
	return p.topics[len(p.topics)-1], p.events[len(p.events)-1]
}

// nextAuthEvent reads one auth event from a bus subscription.
func nextAuthEvent(t *testing.T, ch <-chan []byte) events.AuthEvent {
	t.Helper()
	select {
	case data := <-ch:
		var e events.AuthEvent
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decode auth event: %v", err)
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("no auth event published")
		return events.AuthEvent{}
	}
}
