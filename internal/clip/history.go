package clip

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MaxEntries is the retention cap. Appending beyond it drops the oldest
// entries in storage order, pinned or not.
const MaxEntries = 200

// HistoryManager is the only owner of the stored history. Every operation is a
// read-modify-write against the EntryStore, serialized by a single mutex so
// concurrent callers in one process never lose each other's updates.
type HistoryManager struct {
	mu     sync.Mutex
	store  *EntryStore
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewHistoryManager creates a HistoryManager with the provided dependencies.
func NewHistoryManager(store *EntryStore, logger Logger, clock Clock, idgen IDGenerator) *HistoryManager {
	return &HistoryManager{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Append records text as the newest entry and enforces the retention cap.
// Text that is empty after trimming is ignored and (nil, nil) is returned.
// The stored text is kept as given; capture surfaces trim before sending.
func (h *HistoryManager) Append(ctx context.Context, text string) (*Entry, error) {
	if strings.TrimSpace(text) == "" {
		h.logger.Debug("empty capture ignored")
		return nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	entry := Entry{
		ID:        h.idgen.New(),
		Text:      text,
		Timestamp: h.clock.Now().UnixMilli(),
	}

	updated := make([]Entry, 0, min(len(entries)+1, MaxEntries))
	updated = append(updated, entry)
	updated = append(updated, entries...)
	if len(updated) > MaxEntries {
		h.logger.Debug("retention cap reached", "dropped", len(updated)-MaxEntries)
		updated = updated[:MaxEntries]
	}

	if err := h.store.WriteAll(ctx, updated); err != nil {
		return nil, fmt.Errorf("writing history: %w", err)
	}

	h.logger.Info("entry captured", "id", entry.ID, "length", len(entry.Text))
	return &entry, nil
}

// List returns the stored history in storage order, newest first.
// Display ordering and filtering are left to the caller.
func (h *HistoryManager) List(ctx context.Context) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// RemoveByID deletes the entry with the given id.
// A missing id is not an error.
func (h *HistoryManager) RemoveByID(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	before := len(entries)
	updated := slices.DeleteFunc(entries, func(e Entry) bool { return e.ID == id })
	if len(updated) == before {
		h.logger.Debug("remove skipped, no such entry", "id", id)
		return nil
	}

	if err := h.store.WriteAll(ctx, updated); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}

	h.logger.Info("entry removed", "id", id)
	return nil
}

// UpdateByID replaces the stored entry whose ID matches entry.ID with entry.
// It is a full replace; callers round-trip the whole entry (e.g. to toggle Pinned).
// A missing id is not an error.
func (h *HistoryManager) UpdateByID(ctx context.Context, entry Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	idx := slices.IndexFunc(entries, func(e Entry) bool { return e.ID == entry.ID })
	if idx == -1 {
		h.logger.Debug("update skipped, no such entry", "id", entry.ID)
		return nil
	}
	entries[idx] = entry

	if err := h.store.WriteAll(ctx, entries); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}

	h.logger.Info("entry updated", "id", entry.ID, "pinned", entry.Pinned)
	return nil
}
