package gormdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "stayrate/internal/app/outbox"
	infraoutbox "stayrate/internal/infra/outbox"
)

const (
	outboxStateNew     = "NEW"
	outboxStateClaimed = "CLAIMED"
	outboxStateSent    = "SENT"
	outboxStateFailed  = "FAILED"
)

// OutboxStore writes event records into the outbox_events table within the
// command's transaction and serves them to the outbox worker.
type OutboxStore struct {
	db           *gorm.DB
	now          func() time.Time
	ClaimTimeout time.Duration
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{
		db:           db,
		now:          func() time.Time { return time.Now().UTC() },
		ClaimTimeout: time.Minute,
	}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	db, _ := conn(ctx, s.db)
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	now := s.now()
	return db.Create(&outboxModel{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     datatypes.JSON(headers),
		State:       outboxStateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}).Error
}

// Flush is a no-op: rows become visible to the worker on commit.
func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim picks the oldest due row with SKIP LOCKED so several workers can
// drain the table without handing out the same row twice.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var claimed *outboxModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		var m outboxModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(state IN ? AND next_attempt <= ?) OR (state = ? AND claimed_at <= ?)",
				[]string{outboxStateNew, outboxStateFailed}, now,
				outboxStateClaimed, now.Add(-s.ClaimTimeout)).
			Order("next_attempt").
			First(&m).Error
		if err != nil {
			return err
		}
		err = tx.Model(&outboxModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"state":      outboxStateClaimed,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error
		if err != nil {
			return err
		}
		claimed = &m
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return claimed.toMessage()
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := s.now()
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":   outboxStateSent,
		"sent_at": now,
	}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":        outboxStateFailed,
		"next_attempt": next,
		"last_error":   errMsg,
		"attempts":     gorm.Expr("attempts + 1"),
	}).Error
}

func (m outboxModel) toMessage() (*infraoutbox.Message, error) {
	headers := map[string]string{}
	if len(m.Headers) > 0 {
		if err := json.Unmarshal(m.Headers, &headers); err != nil {
			return nil, err
		}
	}
	return &infraoutbox.Message{
		EventRecord: appoutbox.EventRecord{
			ID:         m.ID,
			Name:       m.Name,
			Payload:    m.Payload,
			OccurredAt: m.OccurredAt.UTC(),
			Aggregate:  m.Aggregate,
			Headers:    headers,
		},
		Attempts: m.Attempts,
	}, nil
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Queue = (*OutboxStore)(nil)
)
