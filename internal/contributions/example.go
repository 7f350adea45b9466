package contributions

import (
	"strconv"
	"time"
)

type exampleEntry struct {
	user       string
	slideID    string
	editType   string
	numEdits   int
	duration   int
	minutesAgo int
	avatar     int
}

var exampleEntries = []exampleEntry{
	{user: "Alice Johnson", slideID: "slide-1", editType: "text update", numEdits: 2, duration: 500, minutesAgo: 40, avatar: 1},
	{user: "Alice Johnson", slideID: "slide-3", editType: "layout adjusted", numEdits: 3, duration: 850, minutesAgo: 38, avatar: 1},
	{user: "Jayden Patel", slideID: "slide-2", editType: "animation added", numEdits: 4, duration: 1100, minutesAgo: 36, avatar: 10},
	{user: "Jayden Patel", slideID: "slide-7", editType: "text update", numEdits: 2, duration: 600, minutesAgo: 35, avatar: 10},
	{user: "Jayden Patel", slideID: "slide-4", editType: "image added", numEdits: 2, duration: 800, minutesAgo: 34, avatar: 10},
	{user: "Haruki Sato", slideID: "slide-5", editType: "image added", numEdits: 1, duration: 300, minutesAgo: 33, avatar: 8},
	{user: "Haruki Sato", slideID: "slide-9", editType: "idle", numEdits: 0, duration: 450, minutesAgo: 32, avatar: 8},
	{user: "Danielle Lee", slideID: "slide-6", editType: "text update", numEdits: 4, duration: 950, minutesAgo: 31, avatar: 4},
	{user: "Danielle Lee", slideID: "slide-10", editType: "layout adjusted", numEdits: 1, duration: 350, minutesAgo: 30, avatar: 4},
	{user: "Liam Reyes", slideID: "slide-8", editType: "text update", numEdits: 1, duration: 250, minutesAgo: 29, avatar: 11},
	{user: "Liam Reyes", slideID: "slide-6", editType: "idle", numEdits: 0, duration: 600, minutesAgo: 28, avatar: 11},
	{user: "Priya Mehta", slideID: "slide-3", editType: "review only", numEdits: 0, duration: 400, minutesAgo: 27, avatar: 15},
	{user: "Grace O’Malley", slideID: "slide-2", editType: "text update", numEdits: 2, duration: 600, minutesAgo: 26, avatar: 7},
	{user: "Grace O’Malley", slideID: "slide-5", editType: "animation added", numEdits: 3, duration: 800, minutesAgo: 25, avatar: 7},
}

// ExampleRecords returns a demonstration team spanning every contribution tier, timestamped relative to now.
func ExampleRecords(now time.Time) []EditRecord {
	records := make([]EditRecord, 0, len(exampleEntries))
	for _, entry := range exampleEntries {
		records = append(records, EditRecord{
			User:            entry.user,
			SlideID:         entry.slideID,
			EditType:        entry.editType,
			NumEdits:        entry.numEdits,
			DurationSeconds: entry.duration,
			Timestamp:       now.Add(-time.Duration(entry.minutesAgo) * time.Minute).UTC(),
			AvatarURL:       exampleAvatarURL(entry.avatar),
		})
	}
	return records
}

func exampleAvatarURL(image int) string {
	return "https://i.pravatar.cc/150?img=" + strconv.Itoa(image)
}
