package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cart-service/internal/entity"
)

// ErrCorruptRecord is returned when a stored session record cannot be decoded or has an unexpected schema.
var ErrCorruptRecord = errors.New("corrupt session record")

// SessionRepository stores one versioned JSON record per cart session.
type SessionRepository struct {
	store KVStore
}

func NewSessionRepository(store KVStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("cart-session:%s", sessionID)
}

// Load fetches and decodes the record of a session.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.SessionRecord, error) {
	raw, err := r.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}

	var record entity.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if record.Version != entity.SessionRecordVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptRecord, record.Version)
	}
	if record.Currency == "" {
		return nil, fmt.Errorf("%w: missing currency", ErrCorruptRecord)
	}
	return &record, nil
}

// Save writes the record, stamping the current schema version.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, record *entity.SessionRecord) error {
	record.Version = entity.SessionRecordVersion
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, sessionKey(sessionID), string(data))
}

// Delete removes the record of a session.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, sessionKey(sessionID))
}
