package security

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
)

// MemoryRevocationStore keeps revoked token digests in process memory until they are swept.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore constructs an empty in-memory revocation store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (s *MemoryRevocationStore) WithClock(clock func() time.Time) *MemoryRevocationStore {
	if clock != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.now = clock
	}
	return s
}

// Revoke records the token until expiresAt. Revoking an already revoked token overwrites its expiry.
// Entries are stored even when expiresAt has passed; the sweep removes them.
func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	s.mu.Lock()
	s.entries[TokenDigest(token)] = expiresAt.UTC()
	s.mu.Unlock()
	return nil
}

// IsRevoked reports membership without consulting the clock.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	s.mu.RLock()
	_, ok := s.entries[TokenDigest(token)]
	s.mu.RUnlock()
	return ok, nil
}

// ApplyRevocation inserts a revocation received from a peer instance, keyed by its digest.
func (s *MemoryRevocationStore) ApplyRevocation(_ context.Context, revocation domain.TokenRevocation) error {
	digest := strings.TrimSpace(revocation.TokenDigest)
	if digest == "" {
		return fmt.Errorf("token digest is required")
	}

	s.mu.Lock()
	s.entries[digest] = revocation.ExpiresAt.UTC()
	s.mu.Unlock()
	return nil
}

// Sweep removes entries whose expiry is strictly before now.
func (s *MemoryRevocationStore) Sweep(_ context.Context, now time.Time) (int, error) {
	cutoff := now.UTC()
	removed := 0

	s.mu.Lock()
	for digest, expiresAt := range s.entries {
		if expiresAt.Before(cutoff) {
			delete(s.entries, digest)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}

// Len reports the number of retained entries.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot serialises entries that have not yet expired.
func (s *MemoryRevocationStore) Snapshot(_ context.Context) (*domain.RevocationSnapshot, error) {
	now := s.currentTime()

	s.mu.RLock()
	entries := make([]revocationSnapshotEntry, 0, len(s.entries))
	for digest, expiresAt := range s.entries {
		if expiresAt.Before(now) {
			continue
		}
		entries = append(entries, revocationSnapshotEntry{Digest: digest, ExpiresAt: expiresAt})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ExpiresAt.Equal(entries[j].ExpiresAt) {
			return entries[i].Digest < entries[j].Digest
		}
		return entries[i].ExpiresAt.Before(entries[j].ExpiresAt)
	})

	payload, err := json.Marshal(revocationSnapshot{Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("encode revocation snapshot: %w", err)
	}

	return &domain.RevocationSnapshot{
		SnapshotID:  uuid.NewString(),
		GeneratedAt: now,
		Payload:     payload,
		Checksum:    snapshotChecksum(payload),
	}, nil
}

// RestoreSnapshot merges the snapshot into the store. Entries already present keep the later expiry.
func (s *MemoryRevocationStore) RestoreSnapshot(_ context.Context, snapshot domain.RevocationSnapshot) error {
	if len(snapshot.Payload) == 0 {
		return nil
	}
	if snapshot.Checksum != "" && snapshot.Checksum != snapshotChecksum(snapshot.Payload) {
		return fmt.Errorf("revocation snapshot %s: checksum mismatch", snapshot.SnapshotID)
	}

	var data revocationSnapshot
	if err := json.Unmarshal(snapshot.Payload, &data); err != nil {
		return fmt.Errorf("decode revocation snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range data.Entries {
		digest := strings.TrimSpace(item.Digest)
		if digest == "" {
			continue
		}
		expiresAt := item.ExpiresAt.UTC()
		if current, ok := s.entries[digest]; ok && current.After(expiresAt) {
			continue
		}
		s.entries[digest] = expiresAt
	}
	return nil
}

func (s *MemoryRevocationStore) currentTime() time.Time {
	s.mu.RLock()
	nowFn := s.now
	s.mu.RUnlock()
	return nowFn().UTC()
}

func snapshotChecksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type revocationSnapshot struct {
	Entries []revocationSnapshotEntry `json:"entries"`
}

type revocationSnapshotEntry struct {
	Digest    string    `json:"digest"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	_ port.RevocationStore       = (*MemoryRevocationStore)(nil)
	_ port.RevocationReplica     = (*MemoryRevocationStore)(nil)
	_ port.RevocationSnapshotter = (*MemoryRevocationStore)(nil)
)
