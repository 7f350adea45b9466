package beats

import (
	"fmt"
	"math"
)

// hypeOffset is the syncopation added after each beat in hype mode.
const hypeOffset = 0.25

// ManualRequest describes an evenly spaced plan.
type ManualRequest struct {
	Range          TimeRange
	RequestedCount int
	MinGap         float64
}

// AutoRequest describes a plan derived from detected audio beats.
type AutoRequest struct {
	Range              TimeRange
	RequestedCount     int
	MinGap             float64
	Genre              Genre
	GenreAffectsTiming bool
	DetectedBeats      []float64
}

// MaxSlides returns how many slides of at least minGap fit the range.
// The second return value is false when minGap does not bound the count.
func MaxSlides(timeRange TimeRange, minGap float64) (int, bool) {
	if minGap <= 0 || !isFinite(minGap) {
		return 0, false
	}
	return int(math.Floor(timeRange.Duration() / minGap)), true
}

// PlanManual spaces requestedCount slides evenly across the range, capped by the minimum gap.
func PlanManual(request ManualRequest) (Plan, error) {
	if err := validateCommon(request.Range, request.RequestedCount, request.MinGap); err != nil {
		return Plan{}, err
	}

	finalCount := request.RequestedCount
	if maxCount, bounded := MaxSlides(request.Range, request.MinGap); bounded && finalCount > maxCount {
		finalCount = maxCount
	}
	if finalCount <= 1 {
		return Plan{}, fmt.Errorf("%w: %d slide(s) fit", ErrInsufficientSpace, finalCount)
	}

	interval := request.Range.Duration() / float64(finalCount)
	timestamps := make([]float64, finalCount+1)
	for index := range timestamps {
		timestamps[index] = roundHundredths(request.Range.Start() + float64(index)*interval)
	}
	return Plan{timestamps: timestamps, interval: interval}, nil
}

// PlanAuto derives a plan from detected beats. When the genre does not affect timing the
// detected beats are ignored and the manual algorithm is used.
func PlanAuto(request AutoRequest) (Plan, error) {
	if !request.GenreAffectsTiming {
		return PlanManual(ManualRequest{
			Range:          request.Range,
			RequestedCount: request.RequestedCount,
			MinGap:         request.MinGap,
		})
	}
	if err := validateCommon(request.Range, request.RequestedCount, request.MinGap); err != nil {
		return Plan{}, err
	}

	candidates := ApplyGenre(WithinRange(request.DetectedBeats, request.Range), request.Genre)
	candidates = EnforceMinGap(candidates, request.MinGap)
	candidates = boundIncreasing(candidates, request.Range)
	if len(candidates) < 2 {
		return Plan{}, fmt.Errorf("%w: %d usable beat(s)", ErrInsufficientBeats, len(candidates))
	}
	return Plan{timestamps: candidates}, nil
}

// WithinRange keeps the beats inside the inclusive range, preserving order.
func WithinRange(detected []float64, timeRange TimeRange) []float64 {
	kept := make([]float64, 0, len(detected))
	for _, timestamp := range detected {
		if timeRange.Contains(timestamp) {
			kept = append(kept, timestamp)
		}
	}
	return kept
}

// ApplyGenre applies the genre transform to a beat sequence.
func ApplyGenre(beats []float64, genre Genre) []float64 {
	switch genre {
	case GenreVocalBallad:
		return everyNth(beats, 2)
	case GenreAmbient:
		return everyNth(beats, 3)
	case GenreHype:
		return syncopate(beats)
	default:
		return append([]float64(nil), beats...)
	}
}

// EnforceMinGap greedily keeps beats that are at least minGap past the last kept beat.
// The first beat is always kept. A non-positive gap keeps every beat.
func EnforceMinGap(beats []float64, minGap float64) []float64 {
	if minGap <= 0 {
		return append([]float64(nil), beats...)
	}
	kept := make([]float64, 0, len(beats))
	for _, timestamp := range beats {
		if len(kept) == 0 || timestamp-kept[len(kept)-1] >= minGap {
			kept = append(kept, timestamp)
		}
	}
	return kept
}

// boundIncreasing drops beats past the range end and beats that do not strictly exceed the
// last kept beat, so every slide spans a positive interval inside the range.
func boundIncreasing(beats []float64, timeRange TimeRange) []float64 {
	kept := make([]float64, 0, len(beats))
	for _, timestamp := range beats {
		if timestamp > timeRange.End() {
			continue
		}
		if len(kept) > 0 && timestamp <= kept[len(kept)-1] {
			continue
		}
		kept = append(kept, timestamp)
	}
	return kept
}

func everyNth(beats []float64, step int) []float64 {
	kept := make([]float64, 0, len(beats)/step+1)
	for index := 0; index < len(beats); index += step {
		kept = append(kept, beats[index])
	}
	return kept
}

// syncopate emits each beat followed by beat+hypeOffset, then drops values that do not
// strictly exceed the last kept value.
func syncopate(beats []float64) []float64 {
	kept := make([]float64, 0, len(beats)*2)
	for _, timestamp := range beats {
		for _, candidate := range [2]float64{timestamp, timestamp + hypeOffset} {
			if len(kept) == 0 || candidate > kept[len(kept)-1] {
				kept = append(kept, candidate)
			}
		}
	}
	return kept
}

func validateCommon(timeRange TimeRange, requestedCount int, minGap float64) error {
	if timeRange.end <= timeRange.start {
		return ErrInvalidRange
	}
	if requestedCount < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, requestedCount)
	}
	if !isFinite(minGap) || minGap < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidGap, minGap)
	}
	return nil
}
