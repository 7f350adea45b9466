package contributions

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
)

// SortKey selects the edit-log column used for ordering.
type SortKey string

const (
	SortByLastName  SortKey = "lastName"
	SortBySlide     SortKey = "slide"
	SortByNumEdits  SortKey = "numEdits"
	SortByDuration  SortKey = "duration"
	SortByTimestamp SortKey = "timestamp"
)

// GroupKey selects how the edit log is bucketed.
type GroupKey string

const (
	GroupNone  GroupKey = "none"
	GroupUser  GroupKey = "user"
	GroupSlide GroupKey = "slide"
)

const allGroupKey = "All"

// ParseSortKey validates a sort key. Empty input selects the slide ordering.
func ParseSortKey(value string) (SortKey, error) {
	switch key := SortKey(strings.TrimSpace(value)); key {
	case "":
		return SortBySlide, nil
	case SortByLastName, SortBySlide, SortByNumEdits, SortByDuration, SortByTimestamp:
		return key, nil
	default:
		return "", fmt.Errorf("contributions: unknown sort key %q", value)
	}
}

// ParseGroupKey validates a grouping key. Empty input selects no grouping.
func ParseGroupKey(value string) (GroupKey, error) {
	switch key := GroupKey(strings.TrimSpace(value)); key {
	case "":
		return GroupNone, nil
	case GroupNone, GroupUser, GroupSlide:
		return key, nil
	default:
		return "", fmt.Errorf("contributions: unknown group key %q", value)
	}
}

// ViewQuery filters, orders and groups the edit log for display.
type ViewQuery struct {
	Search              string
	NonContributorsOnly bool
	SortBy              SortKey
	Ascending           bool
	GroupBy             GroupKey
}

// Group is one bucket of the edit-log view.
type Group struct {
	Key     string       `json:"key"`
	Records []EditRecord `json:"records"`
}

// View applies the query to the records. Groups appear in order of first occurrence after sorting.
func (s *Scorer) View(records []EditRecord, query ViewQuery) []Group {
	contributors := make(map[string]bool)
	for _, record := range records {
		if record.Meaningful() {
			contributors[record.User] = true
		}
	}

	needle := strings.ToLower(query.Search)
	filtered := make([]EditRecord, 0, len(records))
	for _, record := range records {
		haystack := strings.ToLower(record.User + " " + record.SlideID)
		if needle != "" && !strings.Contains(haystack, needle) {
			continue
		}
		if query.NonContributorsOnly && contributors[record.User] {
			continue
		}
		filtered = append(filtered, record)
	}

	collator := collate.New(s.locale)
	compare := func(a, b EditRecord) int {
		switch query.SortBy {
		case SortByLastName:
			return collator.CompareString(LastName(a.User), LastName(b.User))
		case SortByNumEdits:
			return a.NumEdits - b.NumEdits
		case SortByDuration:
			return a.DurationSeconds - b.DurationSeconds
		case SortByTimestamp:
			return a.Timestamp.Compare(b.Timestamp)
		default:
			return collator.CompareString(a.SlideID, b.SlideID)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		result := compare(filtered[i], filtered[j])
		if query.Ascending {
			return result < 0
		}
		return result > 0
	})

	if query.GroupBy != GroupUser && query.GroupBy != GroupSlide {
		return []Group{{Key: allGroupKey, Records: filtered}}
	}
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, record := range filtered {
		key := record.SlideID
		if query.GroupBy == GroupUser {
			key = record.User
		}
		position, ok := index[key]
		if !ok {
			position = len(groups)
			index[key] = position
			groups = append(groups, Group{Key: key})
		}
		groups[position].Records = append(groups[position].Records, record)
	}
	return groups
}

// FormatDuration renders seconds as "45s" below a minute and "2m 5s" otherwise.
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
