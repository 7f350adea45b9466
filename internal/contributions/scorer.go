package contributions

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UserStats aggregates one user's meaningful activity and resulting tier.
type UserStats struct {
	Name                 string  `json:"name"`
	TotalEdits           int     `json:"total_edits"`
	TotalDurationSeconds int     `json:"total_duration_sec"`
	SlideCount           int     `json:"slide_count"`
	Share                float64 `json:"share"`
	ExpectedShare        float64 `json:"expected_share"`
	AvgSecondsPerEdit    float64 `json:"avg_sec_per_edit"`
	Level                Level   `json:"level"`
	Icon                 string  `json:"icon"`
	Contributed          bool    `json:"contributed"`
}

// SlideActivity aggregates meaningful edits on one slide.
type SlideActivity struct {
	SlideID      string `json:"slide_id"`
	TotalEdits   int    `json:"total_edits"`
	Contributors int    `json:"contributors"`
}

// Inactive reports whether the slide has no meaningful edits.
func (a SlideActivity) Inactive() bool {
	return a.TotalEdits == 0
}

// Overview is the team-level report.
type Overview struct {
	UniqueContributors int             `json:"unique_contributors"`
	TotalUsers         int             `json:"total_users"`
	TotalEdits         int             `json:"total_edits"`
	AverageEdits       float64         `json:"average_edits"`
	Contributed        []UserStats     `json:"contributed"`
	NeedsParticipation []UserStats     `json:"needs_participation"`
	Slides             []SlideActivity `json:"slides"`
}

// Summary is the full result of scoring a record set.
type Summary struct {
	Overview    Overview          `json:"overview"`
	Users       []UserStats       `json:"users"`
	Feedback    map[string]string `json:"feedback"`
	DefaultUser string            `json:"default_user"`
	Text        string            `json:"text"`
}

// Scorer computes contribution summaries, ordering names with a locale-aware collation.
type Scorer struct {
	locale language.Tag
}

// NewScorer constructs a scorer for the given BCP 47 locale. An empty locale selects English.
func NewScorer(locale string) (*Scorer, error) {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return &Scorer{locale: language.English}, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("contributions: invalid locale %q: %w", locale, err)
	}
	return &Scorer{locale: tag}, nil
}

type userAccumulator struct {
	name          string
	totalEdits    int
	totalDuration int
	slides        map[string]struct{}
	contributed   bool
}

type slideAccumulator struct {
	slideID    string
	totalEdits int
	users      map[string]struct{}
}

// Summarize scores the full record snapshot. It is deterministic for identical input.
func (s *Scorer) Summarize(records []EditRecord) Summary {
	users := make(map[string]*userAccumulator)
	userOrder := make([]string, 0)
	slides := make(map[string]*slideAccumulator)
	slideOrder := make([]string, 0)
	totalMeaningful := 0

	for _, record := range records {
		user, ok := users[record.User]
		if !ok {
			user = &userAccumulator{name: record.User, slides: make(map[string]struct{})}
			users[record.User] = user
			userOrder = append(userOrder, record.User)
		}
		slide, ok := slides[record.SlideID]
		if !ok {
			slide = &slideAccumulator{slideID: record.SlideID, users: make(map[string]struct{})}
			slides[record.SlideID] = slide
			slideOrder = append(slideOrder, record.SlideID)
		}
		if !record.Meaningful() {
			continue
		}
		user.contributed = true
		user.totalEdits += record.NumEdits
		user.totalDuration += record.DurationSeconds
		user.slides[record.SlideID] = struct{}{}
		slide.totalEdits += record.NumEdits
		slide.users[record.User] = struct{}{}
		totalMeaningful += record.NumEdits
	}

	totalUsers := len(userOrder)
	expectedShare := 0.0
	if totalUsers > 0 {
		expectedShare = 1 / float64(totalUsers)
	}

	statsByName := make(map[string]UserStats, totalUsers)
	feedback := make(map[string]string, totalUsers)
	contributors := 0
	for _, name := range userOrder {
		stats := buildUserStats(users[name], totalMeaningful, expectedShare)
		statsByName[name] = stats
		feedback[name] = renderFeedback(stats, totalUsers)
		if stats.Contributed {
			contributors++
		}
	}

	sorted := s.sortByLastName(userOrder)
	overview := Overview{
		UniqueContributors: contributors,
		TotalUsers:         totalUsers,
		TotalEdits:         totalMeaningful,
		Contributed:        make([]UserStats, 0),
		NeedsParticipation: make([]UserStats, 0),
		Slides:             make([]SlideActivity, 0, len(slideOrder)),
	}
	if contributors > 0 {
		overview.AverageEdits = float64(totalMeaningful) / float64(contributors)
	}

	ordered := make([]UserStats, 0, totalUsers)
	for _, name := range sorted {
		stats := statsByName[name]
		ordered = append(ordered, stats)
		if stats.Contributed {
			overview.Contributed = append(overview.Contributed, stats)
		} else {
			overview.NeedsParticipation = append(overview.NeedsParticipation, stats)
		}
	}
	for _, slideID := range slideOrder {
		slide := slides[slideID]
		overview.Slides = append(overview.Slides, SlideActivity{
			SlideID:      slide.slideID,
			TotalEdits:   slide.totalEdits,
			Contributors: len(slide.users),
		})
	}

	summary := Summary{
		Overview: overview,
		Users:    ordered,
		Feedback: feedback,
		Text:     overview.Render(),
	}
	if totalUsers > 0 {
		summary.DefaultUser = userOrder[0]
	}
	return summary
}

func buildUserStats(user *userAccumulator, totalMeaningful int, expectedShare float64) UserStats {
	share := 0.0
	if totalMeaningful > 0 && user.totalEdits > 0 {
		share = float64(user.totalEdits) / float64(totalMeaningful)
	}
	average := 0.0
	if user.totalEdits > 0 {
		average = float64(user.totalDuration) / float64(user.totalEdits)
	}
	tier := Classify(share, expectedShare)
	return UserStats{
		Name:                 user.name,
		TotalEdits:           user.totalEdits,
		TotalDurationSeconds: user.totalDuration,
		SlideCount:           len(user.slides),
		Share:                share,
		ExpectedShare:        expectedShare,
		AvgSecondsPerEdit:    average,
		Level:                tier.Level,
		Icon:                 tier.Icon,
		Contributed:          user.contributed,
	}
}

// sortByLastName orders names by their last token; names comparing equal keep input order.
func (s *Scorer) sortByLastName(names []string) []string {
	sorted := append([]string(nil), names...)
	collator := collate.New(s.locale)
	sort.SliceStable(sorted, func(i, j int) bool {
		return collator.CompareString(LastName(sorted[i]), LastName(sorted[j])) < 0
	})
	return sorted
}

func renderFeedback(stats UserStats, teamSize int) string {
	tier := TierFor(stats.Level)
	slideLabel := "slides"
	if stats.SlideCount == 1 {
		slideLabel = "slide"
	}
	averageSeconds := int(math.Round(stats.AvgSecondsPerEdit))

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s %s\n", tier.Icon, stats.Name)
	fmt.Fprintf(&builder, "• You contributed %d meaningful edit(s) on %d %s (avg %dm %ds/edit, %.1f%% of total edits).\n\n",
		stats.TotalEdits, stats.SlideCount, slideLabel, averageSeconds/60, averageSeconds%60, stats.Share*100)
	fmt.Fprintf(&builder, "• %s\n\n• %s\n", tier.Summary, tier.Tip)
	fmt.Fprintf(&builder, " • (Expected share for a %d-person team: ~%.1f%%)", teamSize, stats.ExpectedShare*100)
	return builder.String()
}

// Render produces the plain-text overview report.
func (o Overview) Render() string {
	var builder strings.Builder
	builder.WriteString("📊 Overview\n")
	fmt.Fprintf(&builder, "• Unique Contributors: %d/%d\n", o.UniqueContributors, o.TotalUsers)
	fmt.Fprintf(&builder, "• Total Edits: %d\n", o.TotalEdits)
	fmt.Fprintf(&builder, "• Avg. Edits/User: %s\n\n", formatAverage(o.AverageEdits, o.UniqueContributors))

	builder.WriteString("🙌 Contributed\n")
	builder.WriteString(renderUserList(o.Contributed, "• No contributors found."))
	builder.WriteString("\n\n📝 Needs to Participate\n")
	builder.WriteString(renderUserList(o.NeedsParticipation, "• No non-contributors found."))
	builder.WriteString("\n\n📄 Slide Activity:\n")

	if len(o.Slides) == 0 {
		builder.WriteString("• No slide edits found.")
		return builder.String()
	}
	lines := make([]string, 0, len(o.Slides))
	for _, slide := range o.Slides {
		line := fmt.Sprintf("• %s: %d edits by %d user(s)", slide.SlideID, slide.TotalEdits, slide.Contributors)
		if slide.Inactive() {
			line = "🚫 " + line
		}
		lines = append(lines, line)
	}
	builder.WriteString(strings.Join(lines, "\n"))
	return builder.String()
}

func renderUserList(users []UserStats, empty string) string {
	if len(users) == 0 {
		return empty
	}
	lines := make([]string, 0, len(users))
	for _, user := range users {
		lines = append(lines, user.Icon+" "+user.Name)
	}
	return strings.Join(lines, "\n")
}

func formatAverage(average float64, contributors int) string {
	if contributors == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", average)
}
