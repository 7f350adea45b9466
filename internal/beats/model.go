package beats

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidRange indicates an end time at or before the start time, or a non-finite bound.
	ErrInvalidRange = errors.New("beats: invalid time range")
	// ErrInvalidCount indicates a requested slide count below one.
	ErrInvalidCount = errors.New("beats: invalid slide count")
	// ErrInvalidGap indicates a negative or non-finite minimum gap.
	ErrInvalidGap = errors.New("beats: invalid minimum gap")
	// ErrInsufficientSpace indicates the requested slides cannot fit the range with the minimum gap.
	ErrInsufficientSpace = errors.New("beats: not enough space for beats with the given gap")
	// ErrInsufficientBeats indicates fewer than two beats survive genre and gap filtering.
	ErrInsufficientBeats = errors.New("beats: not enough beats after genre and gap filtering")
)

// TimeRange is a cropped audio window in seconds.
type TimeRange struct {
	start float64
	end   float64
}

// NewTimeRange validates the bounds and returns a TimeRange.
func NewTimeRange(start, end float64) (TimeRange, error) {
	if !isFinite(start) || !isFinite(end) {
		return TimeRange{}, fmt.Errorf("%w: bounds must be numeric", ErrInvalidRange)
	}
	if start < 0 {
		return TimeRange{}, fmt.Errorf("%w: start %.2f is negative", ErrInvalidRange, start)
	}
	if end <= start {
		return TimeRange{}, fmt.Errorf("%w: end %.2f must exceed start %.2f", ErrInvalidRange, end, start)
	}
	return TimeRange{start: start, end: end}, nil
}

// Start returns the inclusive lower bound.
func (r TimeRange) Start() float64 {
	return r.start
}

// End returns the inclusive upper bound.
func (r TimeRange) End() float64 {
	return r.end
}

// Duration returns the length of the range in seconds.
func (r TimeRange) Duration() float64 {
	return r.end - r.start
}

// Contains reports whether the timestamp lies within the inclusive range.
func (r TimeRange) Contains(timestamp float64) bool {
	return timestamp >= r.start && timestamp <= r.end
}

// Mode selects how a plan is produced.
type Mode string

const (
	// ModeManual spaces slides evenly across the range.
	ModeManual Mode = "manual"
	// ModeAuto derives slides from detected audio beats.
	ModeAuto Mode = "auto"
)

// ParseMode normalizes a mode name. Empty input resolves to manual.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeManual):
		return ModeManual, nil
	case string(ModeAuto):
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("beats: unknown mode %q", value)
	}
}

// Genre is a style hint that selects a beat transform.
type Genre string

const (
	GenreAuto        Genre = "auto"
	GenreVocalBallad Genre = "vocal_ballad"
	GenreCinematic   Genre = "cinematic"
	GenreAmbient     Genre = "ambient"
	GenreHype        Genre = "hype"
)

var genreAliases = map[string]Genre{
	"auto":         GenreAuto,
	"vocal_ballad": GenreVocalBallad,
	"classical":    GenreVocalBallad,
	"cinematic":    GenreCinematic,
	"pop":          GenreCinematic,
	"ambient":      GenreAmbient,
	"lofi":         GenreAmbient,
	"hype":         GenreHype,
	"hiphop":       GenreHype,
}

// ParseGenre maps canonical and legacy panel values onto a Genre. Unrecognized values resolve to auto.
func ParseGenre(value string) Genre {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if genre, ok := genreAliases[normalized]; ok {
		return genre
	}
	return GenreAuto
}

// GenreInfo describes a genre for selection menus.
type GenreInfo struct {
	Genre       Genre  `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Genres lists the supported genre hints in menu order.
func Genres() []GenreInfo {
	return []GenreInfo{
		{
			Genre:       GenreAuto,
			Label:       "🤖 Auto (Best Guess)",
			Description: "Smart pacing based on detected beat intensity and density. Good for most use cases.",
		},
		{
			Genre:       GenreVocalBallad,
			Label:       "🎵 Vocal Ballad",
			Description: "Smooth and slow transitions, ideal for storytelling or vocals. Uses every 2nd beat.",
		},
		{
			Genre:       GenreCinematic,
			Label:       "🎬 Trailer / Cinematic",
			Description: "Bold, balanced pacing for general media, trailers, or punchy transitions. Uses full beat list.",
		},
		{
			Genre:       GenreAmbient,
			Label:       "🌙 Chill / Ambient",
			Description: "Relaxed, longer slide durations. Picks every 3rd beat for a spacious, minimal flow.",
		},
		{
			Genre:       GenreHype,
			Label:       "⚡ Energetic / Hype",
			Description: "Rhythmic bursts with occasional beat stacking for fast-paced visuals. Adds syncopation.",
		},
	}
}

// Plan is an ordered, strictly increasing sequence of slide boundary timestamps.
// N+1 boundaries describe N slides.
type Plan struct {
	timestamps []float64
	interval   float64
}

// Timestamps returns a copy of the boundary timestamps.
func (p Plan) Timestamps() []float64 {
	return append([]float64(nil), p.timestamps...)
}

// SlideCount returns the number of slide intervals described by the plan.
func (p Plan) SlideCount() int {
	if len(p.timestamps) < 2 {
		return 0
	}
	return len(p.timestamps) - 1
}

// Interval returns the even spacing of a manual plan and zero for beat-derived plans.
func (p Plan) Interval() float64 {
	return p.interval
}

// Evenly reports whether the plan was produced by even spacing.
func (p Plan) Evenly() bool {
	return p.interval > 0
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func roundHundredths(value float64) float64 {
	return math.Round(value*100) / 100
}
