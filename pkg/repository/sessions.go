package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// SessionRepository persists the local sign-in session. Unlike the other
// collections it holds a single JSON object.
type SessionRepository struct {
	store *stores.RecordStore
}

// Load returns the stored session. A missing or unreadable session reports
// found=false.
func (r *SessionRepository) Load(ctx context.Context) (stores.Session, bool, error) {
	raw, ok, err := r.store.GetRaw(ctx, stores.KeySession)
	if err != nil {
		return stores.Session{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return stores.Session{}, false, nil
	}
	var s stores.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Token == "" {
		return stores.Session{}, false, nil
	}
	return s, true, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(ctx context.Context, session stores.Session) error {
	if err := validate(session); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.store.SetRaw(ctx, stores.KeySession, string(data))
}

// Clear removes the stored session.
func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, stores.KeySession)
}
