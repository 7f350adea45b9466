package edits

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/contributions"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidDeckID indicates that a deck identifier is empty or exceeds storage bounds.
	ErrInvalidDeckID = errors.New("edits: invalid deck id")
	// ErrInvalidEntry indicates that an appended edit entry fails validation.
	ErrInvalidEntry = errors.New("edits: invalid entry")
)

// DeckID represents a validated deck identifier.
type DeckID string

// NewDeckID validates raw input and returns a DeckID.
func NewDeckID(rawInput string) (DeckID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDeckID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDeckID, maxIdentifierLength)
	}
	return DeckID(trimmed), nil
}

// String returns the underlying string identifier.
func (id DeckID) String() string {
	return string(id)
}

// Entry is a client-supplied edit-log row prior to persistence.
type Entry struct {
	User            string    `json:"user"`
	SlideID         string    `json:"slide_id"`
	EditType        string    `json:"edit_type"`
	NumEdits        int       `json:"num_edits"`
	DurationSeconds int       `json:"duration_sec"`
	Timestamp       time.Time `json:"timestamp"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
}

// Validate checks the entry against storage bounds.
func (e Entry) Validate() error {
	if err := validateLabel("user", e.User); err != nil {
		return err
	}
	if err := validateLabel("slide_id", e.SlideID); err != nil {
		return err
	}
	if len(e.EditType) > maxIdentifierLength {
		return fmt.Errorf("%w: edit_type exceeds %d characters", ErrInvalidEntry, maxIdentifierLength)
	}
	if e.NumEdits < 0 {
		return fmt.Errorf("%w: num_edits must not be negative", ErrInvalidEntry)
	}
	if e.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration_sec must not be negative", ErrInvalidEntry)
	}
	return nil
}

func validateLabel(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidEntry, field)
	}
	if len(trimmed) > maxIdentifierLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidEntry, field, maxIdentifierLength)
	}
	return nil
}

// Record is the persisted edit-log row.
type Record struct {
	RecordID          string `gorm:"column:record_id;primaryKey;size:190;not null"`
	DeckID            string `gorm:"column:deck_id;size:190;not null;index:idx_edit_records_deck_time,priority:1"`
	UserName          string `gorm:"column:user_name;size:190;not null"`
	SlideID           string `gorm:"column:slide_id;size:190;not null"`
	EditType          string `gorm:"column:edit_type;size:190;not null;default:''"`
	NumEdits          int    `gorm:"column:num_edits;not null;default:0"`
	DurationSeconds   int    `gorm:"column:duration_s;not null;default:0"`
	AvatarURL         string `gorm:"column:avatar_url;type:text;not null;default:''"`
	OccurredAtSeconds int64  `gorm:"column:occurred_at_s;not null;index:idx_edit_records_deck_time,priority:2"`
	CreatedAtSeconds  int64  `gorm:"column:created_at_s;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "edit_records"
}

// ToContribution converts the stored row into the scoring representation.
func (r Record) ToContribution() contributions.EditRecord {
	return contributions.EditRecord{
		User:            r.UserName,
		SlideID:         r.SlideID,
		EditType:        r.EditType,
		NumEdits:        r.NumEdits,
		DurationSeconds: r.DurationSeconds,
		Timestamp:       time.Unix(r.OccurredAtSeconds, 0).UTC(),
		AvatarURL:       r.AvatarURL,
	}
}

// ToContributions converts a record snapshot preserving order.
func ToContributions(records []Record) []contributions.EditRecord {
	converted := make([]contributions.EditRecord, 0, len(records))
	for _, record := range records {
		converted = append(converted, record.ToContribution())
	}
	return converted
}

// EntryFromContribution adapts a scoring record into an appendable entry.
func EntryFromContribution(record contributions.EditRecord) Entry {
	return Entry{
		User:            record.User,
		SlideID:         record.SlideID,
		EditType:        record.EditType,
		NumEdits:        record.NumEdits,
		DurationSeconds: record.DurationSeconds,
		Timestamp:       record.Timestamp,
		AvatarURL:       record.AvatarURL,
	}
}
