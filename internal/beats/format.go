package beats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotEnoughBeatsForTiming is the timing descriptor returned for fewer than two beats.
const NotEnoughBeatsForTiming = "Not enough beats to calculate timing."

var errEmptyBeatList = errors.New("beats: empty beat list")

// FormatTimestamp renders seconds as mm:ss.cc. The value is rounded to centiseconds before
// minutes are split off, so the seconds field never reaches 60.
func FormatTimestamp(seconds float64) string {
	centiseconds := int64(math.Round(seconds * 100))
	minutes := centiseconds / 6000
	remainder := centiseconds % 6000
	return fmt.Sprintf("%02d:%02d.%02d", minutes, remainder/100, remainder%100)
}

// Lines renders one "Slide i: start–end" line per slide interval.
func (p Plan) Lines() []string {
	if p.SlideCount() == 0 {
		return nil
	}
	lines := make([]string, 0, p.SlideCount())
	for index := 0; index < len(p.timestamps)-1; index++ {
		lines = append(lines, fmt.Sprintf("Slide %d: %s–%s",
			index+1,
			FormatTimestamp(p.timestamps[index]),
			FormatTimestamp(p.timestamps[index+1])))
	}
	return lines
}

// Text joins the rendered slide lines with newlines.
func (p Plan) Text() string {
	return strings.Join(p.Lines(), "\n")
}

// BeatList renders the boundary timestamps one per line, the form consumed by timing descriptors.
func (p Plan) BeatList() string {
	values := make([]string, 0, len(p.timestamps))
	for _, timestamp := range p.timestamps {
		values = append(values, strconv.FormatFloat(timestamp, 'f', -1, 64))
	}
	return strings.Join(values, "\n")
}

// Status renders the status line shown after generation. An empty descriptor on an even
// plan falls back to the computed interval.
func (p Plan) Status(descriptor string) string {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		if p.Evenly() {
			return fmt.Sprintf("📏 %d beats generated, %.2fs each", p.SlideCount(), p.interval)
		}
		return fmt.Sprintf("📏 %d beats generated", p.SlideCount())
	}
	return fmt.Sprintf("📏 %d beats generated, approx. %s each", p.SlideCount(), descriptor)
}

// ParseBeatList parses a newline separated list of timestamps. Entries may carry a trailing "s".
func ParseBeatList(text string) ([]float64, error) {
	var parsed []float64
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.Trim(strings.TrimSpace(line), "s")
		if trimmed == "" {
			continue
		}
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("beats: invalid timestamp %q: %w", line, err)
		}
		parsed = append(parsed, value)
	}
	if len(parsed) == 0 {
		return nil, errEmptyBeatList
	}
	return parsed, nil
}

// DescribeTiming returns the average gap between consecutive beats as "X.XXs".
func DescribeTiming(timestamps []float64) string {
	if len(timestamps) < 2 {
		return NotEnoughBeatsForTiming
	}
	var total float64
	for index := 0; index < len(timestamps)-1; index++ {
		total += roundHundredths(timestamps[index+1] - timestamps[index])
	}
	return fmt.Sprintf("%.2fs", total/float64(len(timestamps)-1))
}

type jsonExport struct {
	Beats []float64 `json:"beats"`
}

// ExportJSON renders the beats as an indented {"beats": [...]} document.
func ExportJSON(timestamps []float64) ([]byte, error) {
	if timestamps == nil {
		timestamps = []float64{}
	}
	return json.MarshalIndent(jsonExport{Beats: timestamps}, "", "  ")
}

// ExportCSV renders the beats as a single-column CSV with a "timestamp" header.
func ExportCSV(timestamps []float64) string {
	var builder strings.Builder
	builder.WriteString("timestamp")
	for _, timestamp := range timestamps {
		builder.WriteString("\n")
		builder.WriteString(strconv.FormatFloat(timestamp, 'f', 2, 64))
	}
	return builder.String()
}
