package models

import "time"

type BoosterKind string

const (
	BoosterKindBooster BoosterKind = "booster"
	BoosterKindMaddie  BoosterKind = "maddie"
)

// Booster is an entry of the booster/maddie catalogue managed by admins.
type Booster struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Icon            string      `json:"icon"`
	Description     string      `json:"description"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Kind            BoosterKind `json:"kind"`
	CreatedAt       time.Time   `json:"created_at"`
}
