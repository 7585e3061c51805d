package audit

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"

	"golang.org/x/crypto/blake2b"

	id "namereg/pkg/domain"
)

// Store persists the append-only audit log.
type Store interface {
	Append(ctx context.Context, event Event) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	ListByActor(ctx context.Context, actor id.PrincipalID) ([]Entry, error)
}

// MemoryStore keeps the log in memory. Append assigns the sequence number
// and chains the checksum under one lock, so the chain never forks.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	last    string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Sequence: uint64(len(s.entries)) + 1,
		Event:    event,
		Checksum: chainChecksum(s.last, event),
	}
	s.entries = append(s.entries, entry)
	s.last = entry.Checksum
	return entry, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) ListByActor(_ context.Context, actor id.PrincipalID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if entry.Actor == actor {
			out = append(out, entry)
		}
	}
	return out, nil
}

// chainChecksum hashes the previous checksum together with the event, so
// each entry commits to the whole log before it.
func chainChecksum(prev string, event Event) string {
	payload, _ := json.Marshal(event)
	h, _ := blake2b.New256(nil)
	h.Write([]byte(prev))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyChain recomputes every checksum and reports the first sequence that
// does not match, or 0 if the chain is intact.
func VerifyChain(entries []Entry) uint64 {
	prev := ""
	for _, entry := range entries {
		if chainChecksum(prev, entry.Event) != entry.Checksum {
			return entry.Sequence
		}
		prev = entry.Checksum
	}
	return 0
}
