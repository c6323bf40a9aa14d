// Package guard decides, for each navigation, whether it may proceed or must be redirected,
// based on the route's access metadata and the requester's session.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/Dosada05/hockey-madness/metrics"
)

// DefaultWaitTimeout bounds how long a navigation waits for a loading session.
const DefaultWaitTimeout = 8 * time.Second

const (
	RouteHome  = "home"
	RouteLogin = "login"
)

// TeamAllowList holds the route names a team account may visit.
var TeamAllowList = []string{"home", "scoreboard", "profile", "user-dashboard", "match-center", "game-guide"}

// Reasons reported in Decision.Reason.
const (
	ReasonPublic          = "public"
	ReasonAllowed         = "allowed"
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotAdmin        = "not_admin"
	ReasonTeamRestricted  = "team_restricted"
	ReasonNotUserRole     = "not_user_role"
	ReasonFailOpen        = "fail_open"
)

// Phase is a step of a single navigation decision.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseWaitingOnSession Phase = "waiting_on_session"
	PhaseAuthorized       Phase = "authorized"
	PhaseRedirected       Phase = "redirected"
)

var ErrUnexpected = errors.New("unexpected guard failure")

type Redirect struct {
	Name  string            `json:"name"`
	Path  string            `json:"path"`
	Query map[string]string `json:"query,omitempty"`
}

// URL renders the redirect as a path with its encoded query.
func (r Redirect) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	q := url.Values{}
	for k, v := range r.Query {
		q.Set(k, v)
	}
	return r.Path + "?" + q.Encode()
}

// Decision is the outcome of one navigation.
type Decision struct {
	Proceed  bool      `json:"proceed"`
	Redirect *Redirect `json:"redirect,omitempty"`
	Reason   string    `json:"reason"`
	Route    string    `json:"route,omitempty"`
	Waited   bool      `json:"waited"`
	TimedOut bool      `json:"timed_out"`
	Phases   []Phase   `json:"phases"`
}

type Options struct {
	WaitTimeout time.Duration
	Logger      *slog.Logger
}

type Guard struct {
	table       *Table
	waitTimeout time.Duration
	logger      *slog.Logger
}

func New(table *Table, opts Options) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	return &Guard{
		table:       table,
		waitTimeout: timeout,
		logger:      logger.With(slog.String("component", "guard")),
	}
}

func (g *Guard) Table() *Table { return g.table }

// Navigate resolves fullPath against the route table and checks it. Paths matching no route are
// treated as public.
func (g *Guard) Navigate(ctx context.Context, fullPath string, s Session) Decision {
	target, _ := g.table.Resolve(fullPath)
	return g.Check(ctx, target, s)
}

// Check runs the access rules for target. Any unexpected failure lets the navigation proceed.
func (g *Guard) Check(ctx context.Context, target Target, s Session) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("navigation guard failed, allowing navigation",
				slog.String("path", target.FullPath),
				slog.Any("error", fmt.Errorf("%w: %v", ErrUnexpected, r)))
			d = Decision{
				Proceed: true,
				Reason:  ReasonFailOpen,
				Route:   target.Name,
				Phases:  append(d.Phases, PhaseAuthorized),
			}
		}
		metrics.GuardDecisionsTotal.WithLabelValues(outcome(d), d.Reason).Inc()
	}()

	d = g.check(ctx, target, s)
	if d.Redirect != nil {
		g.logger.Info("navigation redirected",
			slog.String("path", target.FullPath),
			slog.String("reason", d.Reason),
			slog.String("redirect", d.Redirect.URL()))
	}
	return d
}

func (g *Guard) check(ctx context.Context, target Target, s Session) Decision {
	d := Decision{Route: target.Name, Phases: []Phase{PhaseIdle}}

	meta := target.Meta()
	// Public routes never look at the session.
	if !meta.RequiresAuth && !meta.RequiresAdmin {
		return g.proceed(d, ReasonPublic)
	}

	st := s.Snapshot()
	if st.Loading {
		d.Waited = true
		d.Phases = append(d.Phases, PhaseWaitingOnSession)

		start := time.Now()
		var err error
		st, err = WaitSettled(ctx, s, g.waitTimeout)
		result := "settled"
		if err != nil {
			// Decide with whatever state is current rather than forcing a redirect.
			d.TimedOut = true
			result = "timeout"
			if !errors.Is(err, ErrWaitTimeout) {
				result = "canceled"
			}
			g.logger.Warn("session still loading, deciding with current state",
				slog.String("path", target.FullPath),
				slog.Duration("waited", time.Since(start)),
				slog.Any("error", err))
		}
		metrics.GuardWaitDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}

	switch {
	case meta.RequiresAuth && !st.Authenticated():
		return g.redirect(d, ReasonUnauthenticated, RouteLogin, map[string]string{"redirect": target.FullPath})
	case meta.RequiresAdmin && !st.IsAdmin():
		return g.redirect(d, ReasonNotAdmin, RouteHome, nil)
	case st.IsTeam() && !slices.Contains(TeamAllowList, target.Name):
		return g.redirect(d, ReasonTeamRestricted, RouteHome, nil)
	case meta.RequiresUserRole && !st.IsUser():
		return g.redirect(d, ReasonNotUserRole, RouteHome, nil)
	}
	return g.proceed(d, ReasonAllowed)
}

func (g *Guard) proceed(d Decision, reason string) Decision {
	d.Proceed = true
	d.Reason = reason
	d.Phases = append(d.Phases, PhaseAuthorized)
	return d
}

func (g *Guard) redirect(d Decision, reason, name string, query map[string]string) Decision {
	p, ok := g.table.PathOf(name)
	if !ok {
		p = "/"
		if name == RouteLogin {
			p = "/login"
		}
	}
	d.Reason = reason
	d.Redirect = &Redirect{Name: name, Path: p, Query: query}
	d.Phases = append(d.Phases, PhaseRedirected)
	return d
}

func outcome(d Decision) string {
	if d.Proceed {
		return "proceed"
	}
	return "redirect"
}
