package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type TimelineEventType string

const (
	EventGoal             TimelineEventType = "goal"
	EventBoosterActivated TimelineEventType = "booster_activated"
	EventMaddieActivated  TimelineEventType = "maddie_activated"
	EventCardIssued       TimelineEventType = "card_issued"
	EventMatchStarted     TimelineEventType = "match_started"
	EventMatchPaused      TimelineEventType = "match_paused"
	EventMatchResumed     TimelineEventType = "match_resumed"
	EventMatchFinished    TimelineEventType = "match_finished"
	EventPenaltyCorner    TimelineEventType = "penalty_corner"
)

// CardDuration is a card suspension in seconds; nil means the card never expires (red).
type CardDuration struct {
	Seconds *int
}

func (d CardDuration) MarshalJSON() ([]byte, error) {
	if d.Seconds == nil {
		return []byte(`"never"`), nil
	}
	return json.Marshal(*d.Seconds)
}

func (d *CardDuration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`"never"`)) || bytes.Equal(data, []byte("null")) {
		d.Seconds = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card duration must be seconds or \"never\": %w", err)
	}
	d.Seconds = &n
	return nil
}

// TimelineDetails holds the payload of every event type; only the fields of the given type are set.
type TimelineDetails struct {
	ScoreA *int  `json:"score_a,omitempty"`
	ScoreB *int  `json:"score_b,omitempty"`
	PC     *bool `json:"pc,omitempty"`
	PCA    *int  `json:"pc_a,omitempty"`
	PCB    *int  `json:"pc_b,omitempty"`

	BoosterID   string `json:"booster_id,omitempty"`
	BoosterName string `json:"booster_name,omitempty"`
	BoosterIcon string `json:"booster_icon,omitempty"`
	MaddieID    string `json:"maddie_id,omitempty"`
	MaddieName  string `json:"maddie_name,omitempty"`
	MaddieIcon  string `json:"maddie_icon,omitempty"`
	Minutes     *int   `json:"duration_minutes,omitempty"`

	CardType     CardType      `json:"card_type,omitempty"`
	PlayerName   string        `json:"player_name,omitempty"`
	PlayerNumber string        `json:"player_number,omitempty"`
	CardDuration *CardDuration `json:"duration,omitempty"`

	Status MatchStatus `json:"status,omitempty"`
}

type TimelineEvent struct {
	Type      TimelineEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Team      *Side             `json:"team"`
	MatchTime *int              `json:"matchTime,omitempty"`
	Details   TimelineDetails   `json:"details"`
}

func NewTimelineEvent(typ TimelineEventType, team *Side, details TimelineDetails, matchTime *int) TimelineEvent {
	return TimelineEvent{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Team:      team,
		MatchTime: matchTime,
		Details:   details,
	}
}

func EventsByType(timeline []TimelineEvent, typ TimelineEventType) []TimelineEvent {
	var out []TimelineEvent
	for _, e := range timeline {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func EventsByTeam(timeline []TimelineEvent, team Side) []TimelineEvent {
	var out []TimelineEvent
	for _, e := range timeline {
		if e.Team != nil && *e.Team == team {
			out = append(out, e)
		}
	}
	return out
}

// FormatTimelineEvent renders one line of a match report.
func FormatTimelineEvent(e TimelineEvent, teamAName, teamBName string) string {
	teamName := "Match"
	if e.Team != nil {
		switch *e.Team {
		case SideA:
			teamName = teamAName
		case SideB:
			teamName = teamBName
		}
	}
	clock := "00:00"
	if e.MatchTime != nil && *e.MatchTime > 0 {
		clock = FormatMatchTime(*e.MatchTime)
	}
	d := e.Details

	switch e.Type {
	case EventGoal:
		pc := ""
		if d.PC != nil && *d.PC {
			pc = " [PC]"
		}
		return fmt.Sprintf("%s - %s scored! (%d-%d)%s", clock, teamName, intOrZero(d.ScoreA), intOrZero(d.ScoreB), pc)
	case EventPenaltyCorner:
		return fmt.Sprintf("%s - %s penalty corner (%d-%d)", clock, teamName, intOrZero(d.PCA), intOrZero(d.PCB))
	case EventBoosterActivated:
		return fmt.Sprintf("%s - %s activated %s %s", clock, teamName, d.BoosterIcon, d.BoosterName)
	case EventMaddieActivated:
		return fmt.Sprintf("%s - Maddie activated: %s %s", clock, d.MaddieIcon, d.MaddieName)
	case EventCardIssued:
		return fmt.Sprintf("%s - %s: %s %s card for %s (#%s)", clock, teamName, cardEmoji(d.CardType),
			strings.ToUpper(string(d.CardType)), d.PlayerName, d.PlayerNumber)
	case EventMatchStarted:
		return clock + " - Match started"
	case EventMatchPaused:
		return clock + " - Match paused"
	case EventMatchResumed:
		return clock + " - Match resumed"
	case EventMatchFinished:
		return clock + " - Match finished"
	default:
		return clock + " - Unknown event"
	}
}

// FormatMatchTime formats seconds as mm:ss.
func FormatMatchTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func cardEmoji(c CardType) string {
	switch c {
	case CardYellow:
		return "🟨"
	case CardGreen:
		return "🟩"
	default:
		return "🟥"
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
