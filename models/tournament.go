package models

import "time"

type TournamentStatus string

const (
	TournamentStatusDraft     TournamentStatus = "draft"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	Status    TournamentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`

	Divisions []Division `json:"divisions,omitempty"`
}

type Division struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	Name         string    `json:"name"`
	TeamIDs      []string  `json:"team_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// Standing is one row of a division table.
type Standing struct {
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Points       int    `json:"points"`
}

func (s Standing) GoalDifference() int { return s.GoalsFor - s.GoalsAgainst }
