package edits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

var serviceNow = time.Unix(1700000600, 0).UTC()

func newTestService(t *testing.T, ids []string, logger *zap.Logger) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:slidecraft_edits_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return serviceNow },
		IDProvider: &staticIDGenerator{ids: ids},
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to construct edits service: %v", err)
	}
	return service, db
}

func mustDeckID(t *testing.T, value string) DeckID {
	t.Helper()
	id, err := NewDeckID(value)
	if err != nil {
		t.Fatalf("unexpected deck id error: %v", err)
	}
	return id
}

func TestNewDeckIDValidation(t *testing.T) {
	if _, err := NewDeckID("   "); !errors.Is(err, ErrInvalidDeckID) {
		t.Fatalf("expected invalid deck id for blank input, got %v", err)
	}
	if _, err := NewDeckID(strings.Repeat("d", maxIdentifierLength+1)); !errors.Is(err, ErrInvalidDeckID) {
		t.Fatalf("expected invalid deck id for oversized input, got %v", err)
	}
	if id := mustDeckID(t, "  deck-1 "); id.String() != "deck-1" {
		t.Fatalf("expected trimmed deck id, got %q", id)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceConfig{IDProvider: NewUUIDProvider()})
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Code() != "edits.service.new.missing_database" {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestServiceAppendAndList(t *testing.T) {
	service, _ := newTestService(t, []string{"rec-b", "rec-a", "rec-c"}, nil)
	deck := mustDeckID(t, "deck-1")

	entries := []Entry{
		{User: "Alice Johnson", SlideID: "slide-2", EditType: "text update", NumEdits: 2, DurationSeconds: 60, Timestamp: time.Unix(1700000100, 0)},
		{User: "Ben Carter", SlideID: "slide-1", EditType: "image added", NumEdits: 1, DurationSeconds: 30, Timestamp: time.Unix(1700000100, 0)},
		{User: "Alice Johnson", SlideID: "slide-3", EditType: "idle", DurationSeconds: 90},
	}
	stored, err := service.Append(context.Background(), deck, entries)
	if err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored records, got %d", len(stored))
	}
	if stored[2].OccurredAtSeconds != serviceNow.Unix() {
		t.Fatalf("expected missing timestamp to default to clock, got %d", stored[2].OccurredAtSeconds)
	}

	listed, err := service.List(context.Background(), deck)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	order := []string{listed[0].RecordID, listed[1].RecordID, listed[2].RecordID}
	if order[0] != "rec-a" || order[1] != "rec-b" || order[2] != "rec-c" {
		t.Fatalf("unexpected list order %v", order)
	}

	converted := ToContributions(listed)
	if converted[0].User != "Ben Carter" || !converted[0].Timestamp.Equal(time.Unix(1700000100, 0)) {
		t.Fatalf("unexpected converted record %+v", converted[0])
	}

	other, err := service.List(context.Background(), mustDeckID(t, "deck-2"))
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected other deck to be empty, got %d", len(other))
	}
}

func TestServiceAppendRejectsInvalidEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	service, db := newTestService(t, []string{"rec-1", "rec-2"}, zap.New(core))

	testCases := []struct {
		name  string
		entry Entry
	}{
		{name: "missing-user", entry: Entry{SlideID: "slide-1", NumEdits: 1}},
		{name: "missing-slide", entry: Entry{User: "Alice", NumEdits: 1}},
		{name: "negative-edits", entry: Entry{User: "Alice", SlideID: "slide-1", NumEdits: -1}},
		{name: "negative-duration", entry: Entry{User: "Alice", SlideID: "slide-1", DurationSeconds: -5}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			valid := Entry{User: "Alice", SlideID: "slide-1", NumEdits: 1}
			_, err := service.Append(context.Background(), mustDeckID(t, "deck-1"), []Entry{valid, testCase.entry})
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected invalid entry error, got %v", err)
			}
		})
	}

	var count int64
	if err := db.Model(&Record{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no records after rejected batches, got %d", count)
	}
	if logs.FilterMessage("edits service error").Len() != len(testCases) {
		t.Fatalf("expected one error log per rejected batch, got %d", logs.Len())
	}
}

func TestServiceAppendRollsBackOnFailure(t *testing.T) {
	service, db := newTestService(t, []string{"rec-1"}, nil)
	entries := []Entry{
		{User: "Alice", SlideID: "slide-1", NumEdits: 1},
		{User: "Alice", SlideID: "slide-2", NumEdits: 1},
	}
	_, err := service.Append(context.Background(), mustDeckID(t, "deck-1"), entries)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Code() != "edits.append.id_generation_failed" {
		t.Fatalf("expected id generation failure, got %v", err)
	}

	var count int64
	if err := db.Model(&Record{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected transaction rollback, found %d records", count)
	}
}

func TestServiceClearRemovesOnlyDeckRecords(t *testing.T) {
	service, _ := newTestService(t, []string{"rec-1", "rec-2", "rec-3"}, nil)
	deck := mustDeckID(t, "deck-1")
	other := mustDeckID(t, "deck-2")

	entry := Entry{User: "Alice", SlideID: "slide-1", NumEdits: 1}
	if _, err := service.Append(context.Background(), deck, []Entry{entry, entry}); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if _, err := service.Append(context.Background(), other, []Entry{entry}); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	removed, err := service.Clear(context.Background(), deck)
	if err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed records, got %d", removed)
	}

	remaining, err := service.List(context.Background(), other)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected other deck to keep its record, got %d", len(remaining))
	}
}

func TestUUIDProviderIssuesDistinctIDs(t *testing.T) {
	provider := NewUUIDProvider()
	first, err := provider.NewID()
	if err != nil {
		t.Fatalf("unexpected id error: %v", err)
	}
	second, err := provider.NewID()
	if err != nil {
		t.Fatalf("unexpected id error: %v", err)
	}
	if first == second || len(first) != 36 {
		t.Fatalf("expected distinct uuid strings, got %q and %q", first, second)
	}
}
