package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/storage"
)

// ProfileStore reads and writes the profile blob under a single key.
type ProfileStore struct {
	kv  storage.KV
	key string
	log zerolog.Logger
}

// NewProfileStore creates a store that owns storage.ProfileKey in kv.
func NewProfileStore(kv storage.KV, log zerolog.Logger) *ProfileStore {
	return &ProfileStore{kv: kv, key: storage.ProfileKey, log: log}
}

// Key returns the storage key the profile lives under.
func (s *ProfileStore) Key() string { return s.key }

// Load reads the profile. It always returns a usable profile: when the key
// is missing the default profile is returned with a nil error, and when the
// read fails or the blob cannot be parsed the default profile is returned
// together with the error so the caller can report it.
func (s *ProfileStore) Load(ctx context.Context) (*Profile, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("profile read failed, starting from defaults")
		return DefaultProfile(), fmt.Errorf("read profile: %w", err)
	}
	if !found || raw == "" {
		return DefaultProfile(), nil
	}

	// Decoding over the defaults backfills any field the blob predates.
	p := DefaultProfile()
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("profile blob unparsable, starting from defaults")
		return DefaultProfile(), fmt.Errorf("parse profile: %w", err)
	}
	p.normalize()
	return p, nil
}

// Save serializes the whole profile and writes it in one call.
func (s *ProfileStore) Save(ctx context.Context, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Delete removes the stored profile.
func (s *ProfileStore) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
