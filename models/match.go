package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusActive   MatchStatus = "active"
	MatchStatusPaused   MatchStatus = "paused"
	MatchStatusFinished MatchStatus = "finished"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusActive, MatchStatusPaused, MatchStatusFinished:
		return true
	}
	return false
}

// Side identifies one of the two teams of a match.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

func (s Side) Valid() bool { return s == SideA || s == SideB }

type CardType string

const (
	CardYellow CardType = "yellow"
	CardGreen  CardType = "green"
	CardRed    CardType = "red"
)

func (c CardType) Valid() bool {
	switch c {
	case CardYellow, CardGreen, CardRed:
		return true
	}
	return false
}

type Card struct {
	Team         Side         `json:"team"`
	Type         CardType     `json:"card_type"`
	PlayerName   string       `json:"player_name"`
	PlayerNumber string       `json:"player_number"`
	Duration     CardDuration `json:"duration"`
	IssuedAt     time.Time    `json:"issued_at"`
}

type ActiveBooster struct {
	Team            *Side     `json:"team"`
	BoosterID       string    `json:"booster_id"`
	Name            string    `json:"name"`
	Icon            string    `json:"icon"`
	DurationMinutes *int      `json:"duration,omitempty"`
	ActivatedAt     time.Time `json:"activated_at"`
}

// Match mirrors the matches table. Updates are field-level, last write wins.
type Match struct {
	ID          string          `json:"id"`
	TeamA       string          `json:"team_a"`
	TeamB       string          `json:"team_b"`
	ScoreA      int             `json:"score_a"`
	ScoreB      int             `json:"score_b"`
	PCA         int             `json:"pc_a"`
	PCB         int             `json:"pc_b"`
	Status      MatchStatus     `json:"status"`
	TimeLeft    int             `json:"time_left"`
	Maddie      bool            `json:"maddie"`
	Boosters    []ActiveBooster `json:"boosters"`
	Cards       []Card          `json:"cards"`
	Timeline    []TimelineEvent `json:"timeline"`
	DivisionID  *string         `json:"division_id,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Winner returns the winning side, or nil for a draw.
func (m *Match) Winner() *Side {
	switch {
	case m.ScoreA > m.ScoreB:
		s := SideA
		return &s
	case m.ScoreB > m.ScoreA:
		s := SideB
		return &s
	}
	return nil
}

// MatchPatch carries the fields of a field-level update. Nil fields are left untouched.
type MatchPatch struct {
	TeamA       *string          `json:"team_a,omitempty"`
	TeamB       *string          `json:"team_b,omitempty"`
	ScoreA      *int             `json:"score_a,omitempty" validate:"omitempty,min=0"`
	ScoreB      *int             `json:"score_b,omitempty" validate:"omitempty,min=0"`
	PCA         *int             `json:"pc_a,omitempty" validate:"omitempty,min=0"`
	PCB         *int             `json:"pc_b,omitempty" validate:"omitempty,min=0"`
	Status      *MatchStatus     `json:"status,omitempty"`
	TimeLeft    *int             `json:"time_left,omitempty" validate:"omitempty,min=0"`
	Maddie      *bool            `json:"maddie,omitempty"`
	Boosters    *[]ActiveBooster `json:"boosters,omitempty"`
	Cards       *[]Card          `json:"cards,omitempty"`
	Timeline    *[]TimelineEvent `json:"timeline,omitempty"`
	DivisionID  *string          `json:"division_id,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p MatchPatch) Empty() bool {
	return p == MatchPatch{}
}

type MatchFilter struct {
	Status     *MatchStatus
	DivisionID *string
}
