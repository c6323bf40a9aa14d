// Package fixtures builds match schedules for a division.
package fixtures

import "errors"

var (
	ErrNotEnoughTeams = errors.New("at least two teams are required")
	ErrInvalidLegs    = errors.New("legs must be 1 or 2")
	ErrDuplicateTeam  = errors.New("team listed twice")
)

// Fixture is one pairing of the schedule. Round is the 1-based matchday.
type Fixture struct {
	Round int
	Order int
	Home  string
	Away  string
}

type Generator interface {
	Generate(teams []string, legs int) ([]Fixture, error)

	GetName() string
}
