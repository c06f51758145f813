package voicemail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and early development.
// It keeps raw JSON payloads plus a scored index so it mirrors the redis
// semantics exactly, including malformed-payload handling.
type MemoryStore struct {
	mu       sync.Mutex
	payloads map[string][]byte
	index    map[string]int64 // id -> creation score
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payloads: map[string][]byte{},
		index:    map[string]int64{},
	}
}

func (s *MemoryStore) Create(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("voicemail: record id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("voicemail: marshal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[rec.ID] = payload
	s.index[rec.ID] = rec.CreatedAt.Unix()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	payload, ok := s.payloads[id]
	s.mu.Unlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrMalformedRecord, id)
	}
	return rec, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*Record) error) (Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := mutate(&rec); err != nil {
		return Record{}, err
	}
	rec.ID = id

	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("voicemail: marshal record: %w", err)
	}
	s.mu.Lock()
	s.payloads[id] = payload
	s.mu.Unlock()
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) (ListResult, error) {
	limit := clampLimit(opts.Limit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		id    string
		score int64
	}
	entries := make([]entry, 0, len(s.index))
	for id, score := range s.index {
		entries = append(entries, entry{id, score})
	}
	// Reverse chronological; ties break on id like a redis zset would.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id > entries[j].id
	})

	out := ListResult{Records: []Record{}, Total: int64(len(entries)), Offset: offset, Limit: limit}
	end := offset + limit
	if offset >= len(entries) {
		return out, nil
	}
	if end > len(entries) {
		end = len(entries)
	}

	for _, e := range entries[offset:end] {
		payload, ok := s.payloads[e.id]
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			continue
		}
		if opts.UnlistenedOnly && rec.Listened {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hadPayload := s.payloads[id]
	_, hadIndex := s.index[id]
	if !hadPayload && !hadIndex {
		return ErrNotFound
	}
	delete(s.payloads, id)
	delete(s.index, id)
	return nil
}

// Corrupt replaces a stored payload with garbage. Test helper for the
// malformed-record path.
func (s *MemoryStore) Corrupt(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payloads[id]; ok {
		s.payloads[id] = []byte("{not json")
	}
}

// IndexLen reports the index size. Test helper.
func (s *MemoryStore) IndexLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}
