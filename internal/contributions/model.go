package contributions

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord indicates that an edit record cannot be scored.
var ErrInvalidRecord = errors.New("contributions: invalid record")

// EditRecord is one user's activity on one slide.
type EditRecord struct {
	User            string    `json:"user"`
	SlideID         string    `json:"slide_id"`
	EditType        string    `json:"edit_type"`
	NumEdits        int       `json:"num_edits"`
	DurationSeconds int       `json:"duration_sec"`
	Timestamp       time.Time `json:"timestamp"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
}

var passiveEditTypes = map[string]struct{}{
	"idle":        {},
	"review only": {},
}

// Validate requires a user and slide and rejects negative counts.
func (r EditRecord) Validate() error {
	if strings.TrimSpace(r.User) == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.SlideID) == "" {
		return fmt.Errorf("%w: slide_id is required", ErrInvalidRecord)
	}
	if r.NumEdits < 0 {
		return fmt.Errorf("%w: num_edits must not be negative", ErrInvalidRecord)
	}
	if r.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration_sec must not be negative", ErrInvalidRecord)
	}
	return nil
}

// Meaningful reports whether the record counts toward contribution share.
func (r EditRecord) Meaningful() bool {
	if r.NumEdits <= 0 {
		return false
	}
	_, passive := passiveEditTypes[r.EditType]
	return !passive
}

// LastName returns the last whitespace-delimited token of a display name.
func LastName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Level classifies a user's share of the team's meaningful edits.
type Level string

const (
	LevelHigh     Level = "high"
	LevelSolid    Level = "solid"
	LevelModerate Level = "moderate"
	LevelMinimal  Level = "minimal"
	LevelNone     Level = "none"
)

// Tier holds the threshold and canned feedback for one contribution level.
// A user reaches the tier when share >= Multiplier * expected share.
type Tier struct {
	Level      Level
	Icon       string
	Multiplier float64
	Summary    string
	Tip        string
}

// tiers is ordered from the highest threshold down; the last entry is the fallback.
var tiers = []Tier{
	{
		Level:      LevelHigh,
		Icon:       "🟢",
		Multiplier: 1.2,
		Summary:    "Fantastic! You contributed a strong share of the total edits (well above average), with thoughtful work across multiple slides.",
		Tip:        "📈 Tip: You're modeling excellent teamwork. Keep helping elevate the overall quality.",
	},
	{
		Level:      LevelSolid,
		Icon:       "🟢",
		Multiplier: 0.9,
		Summary:    "Great effort! You’re contributing slightly above average — your edits show good quality and time investment.",
		Tip:        "📌 Tip: To reach the top, try leading edits on a few more slides or refining visual/layout details.",
	},
	{
		Level:      LevelModerate,
		Icon:       "🟡",
		Multiplier: 0.5,
		Summary:    "Good start — your edits account for a moderate share of the team's total. You've made a few solid improvements.",
		Tip:        "📘 Tip: Try branching out to more slides or deepening the quality of each change.",
	},
	{
		Level:      LevelMinimal,
		Icon:       "🟡",
		Multiplier: 0.2,
		Summary:    "You're contributing, but still well below the expected level.",
		Tip:        "🔍 Tip: Start with small but clear edits — fix headers, reword unclear sections, or help with layout. A few more actions can boost your score.",
	},
	{
		Level:   LevelNone,
		Icon:    "🔴",
		Summary: "It looks like you haven’t made any meaningful edits yet.",
		Tip:     "🧭 Tip: Begin by adding or improving just 1–2 slides — every contribution counts and helps the team.",
	},
}

// Tiers returns the tier table from highest to lowest.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// Classify returns the tier reached by share given the expected share.
func Classify(share, expectedShare float64) Tier {
	for _, tier := range tiers[:len(tiers)-1] {
		if share >= expectedShare*tier.Multiplier {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

// TierFor looks up a tier by level, falling back to the none tier.
func TierFor(level Level) Tier {
	for _, tier := range tiers {
		if tier.Level == level {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}
