package clip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// EntriesKey is the storage key that holds the entire history.
const EntriesKey = "clip_entries"

// EntryStore persists the history as one JSON array under EntriesKey.
// It has no partial updates: callers read the whole sequence and write it back.
type EntryStore struct {
	storage Storage
}

// NewEntryStore creates an EntryStore on top of the given backend.
func NewEntryStore(storage Storage) *EntryStore {
	return &EntryStore{storage: storage}
}

// ReadAll returns the stored entries in storage order.
// An absent key yields an empty, non-nil slice.
func (s *EntryStore) ReadAll(ctx context.Context) ([]Entry, error) {
	data, err := s.storage.Get(ctx, EntriesKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", EntriesKey, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", EntriesKey, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// WriteAll replaces the stored sequence with entries.
func (s *EntryStore) WriteAll(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", EntriesKey, err)
	}
	if err := s.storage.Put(ctx, EntriesKey, data); err != nil {
		return fmt.Errorf("writing %s: %w", EntriesKey, err)
	}
	return nil
}
