package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/hockey-madness/models"
)

// MatchArchiver stores a human-readable and a JSON report of a finished match.
type MatchArchiver struct {
	uploader FileUploader
	prefix   string
}

func NewMatchArchiver(uploader FileUploader) *MatchArchiver {
	return &MatchArchiver{uploader: uploader, prefix: "matches"}
}

type ArchiveResult struct {
	TextKey  string `json:"text_key"`
	JSONKey  string `json:"json_key"`
	Location string `json:"location,omitempty"`
}

type matchReport struct {
	Match      *models.Match `json:"match"`
	Winner     *models.Side  `json:"winner"`
	Lines      []string      `json:"lines"`
	ArchivedAt time.Time     `json:"archived_at"`
}

func (a *MatchArchiver) Archive(ctx context.Context, m *models.Match) (*ArchiveResult, error) {
	lines := ReportLines(m)
	text := RenderReport(m, lines)

	payload, err := json.MarshalIndent(matchReport{
		Match:      m,
		Winner:     m.Winner(),
		Lines:      lines,
		ArchivedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode match report: %w", err)
	}

	base := fmt.Sprintf("%s/%s", a.prefix, m.ID)
	txt, err := a.uploader.Upload(ctx, base+"/report.txt", "text/plain; charset=utf-8", strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	js, err := a.uploader.Upload(ctx, base+"/report.json", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return &ArchiveResult{TextKey: txt.Key, JSONKey: js.Key, Location: txt.Location}, nil
}

// ReportLines formats the timeline of m, one line per event.
func ReportLines(m *models.Match) []string {
	lines := make([]string, 0, len(m.Timeline))
	for _, e := range m.Timeline {
		lines = append(lines, models.FormatTimelineEvent(e, m.TeamA, m.TeamB))
	}
	return lines
}

func RenderReport(m *models.Match, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d - %d %s\n", m.TeamA, m.ScoreA, m.ScoreB, m.TeamB)
	fmt.Fprintf(&b, "Penalty corners: %d - %d\n", m.PCA, m.PCB)
	switch w := m.Winner(); {
	case w == nil:
		b.WriteString("Result: draw\n")
	case *w == models.SideA:
		fmt.Fprintf(&b, "Winner: %s\n", m.TeamA)
	default:
		fmt.Fprintf(&b, "Winner: %s\n", m.TeamB)
	}
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}
