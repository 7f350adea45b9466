package edits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries a dotted operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code surfaced to HTTP clients.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "edits.service.new"
	opAppend     = "edits.append"
	opList       = "edits.list"
	opClear      = "edits.clear"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig wires the edit-log service dependencies.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// IDProvider issues unique record identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Service persists the per-deck edit log.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Append stores all entries for the deck in one transaction. Entries without a timestamp
// are stamped with the service clock.
func (s *Service) Append(ctx context.Context, deckID DeckID, entries []Entry) ([]Record, error) {
	for index, entry := range entries {
		if err := entry.Validate(); err != nil {
			s.logError(opAppend, "invalid_entry", err,
				zap.String("deck_id", deckID.String()),
				zap.Int("index", index))
			return nil, newServiceError(opAppend, "invalid_entry", err)
		}
	}

	now := s.clock().UTC()
	records := make([]Record, 0, len(entries))
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			recordID, err := s.idProvider.NewID()
			if err != nil {
				s.logError(opAppend, "id_generation_failed", err, zap.String("deck_id", deckID.String()))
				return newServiceError(opAppend, "id_generation_failed", err)
			}
			occurredAt := entry.Timestamp
			if occurredAt.IsZero() {
				occurredAt = now
			}
			record := Record{
				RecordID:          recordID,
				DeckID:            deckID.String(),
				UserName:          strings.TrimSpace(entry.User),
				SlideID:           strings.TrimSpace(entry.SlideID),
				EditType:          entry.EditType,
				NumEdits:          entry.NumEdits,
				DurationSeconds:   entry.DurationSeconds,
				AvatarURL:         entry.AvatarURL,
				OccurredAtSeconds: occurredAt.UTC().Unix(),
				CreatedAtSeconds:  now.Unix(),
			}
			if err := tx.Create(&record).Error; err != nil {
				s.logError(opAppend, "insert_failed", err,
					zap.String("deck_id", deckID.String()),
					zap.String("record_id", recordID))
				return newServiceError(opAppend, "insert_failed", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return records, nil
}

// List returns the full edit-log snapshot for the deck ordered by occurrence.
func (s *Service) List(ctx context.Context, deckID DeckID) ([]Record, error) {
	var records []Record
	if err := s.db.WithContext(ctx).
		Where("deck_id = ?", deckID.String()).
		Order("occurred_at_s ASC").
		Order("record_id ASC").
		Find(&records).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("deck_id", deckID.String()))
		return nil, newServiceError(opList, "query_failed", err)
	}
	return records, nil
}

// Clear deletes every record for the deck and reports how many were removed.
func (s *Service) Clear(ctx context.Context, deckID DeckID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("deck_id = ?", deckID.String()).
		Delete(&Record{})
	if result.Error != nil {
		s.logError(opClear, "delete_failed", result.Error, zap.String("deck_id", deckID.String()))
		return 0, newServiceError(opClear, "delete_failed", result.Error)
	}
	s.logger.Info("edit log cleared",
		zap.String("deck_id", deckID.String()),
		zap.Int64("removed", result.RowsAffected))
	return result.RowsAffected, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("edits service error", attrs...)
}
