package clip

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CopyMarkKey is the storage key recording the last entry written back to the
// system clipboard. It lets a watcher in another process recognise that text
// as a re-copy instead of a new capture.
const CopyMarkKey = "copy_mark"

// CopyMarkTTL is how long a mark stays valid. A watcher polls far more often;
// an older mark is stale and ignored.
const CopyMarkTTL = time.Minute

type copyMark struct {
	Digest    string `json:"digest"`
	Timestamp int64  `json:"timestamp"`
}

// CopyMarks records and consumes clipboard write-backs in shared storage.
type CopyMarks struct {
	storage Storage
	clock   Clock
}

// NewCopyMarks creates a CopyMarks backed by storage.
func NewCopyMarks(storage Storage, clock Clock) *CopyMarks {
	return &CopyMarks{storage: storage, clock: clock}
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// Mark records that text is about to be written to the clipboard.
// Only a digest is stored.
func (m *CopyMarks) Mark(ctx context.Context, text string) error {
	data, err := json.Marshal(copyMark{Digest: digest(text), Timestamp: m.clock.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encoding copy mark: %w", err)
	}
	if err := m.storage.Put(ctx, CopyMarkKey, data); err != nil {
		return fmt.Errorf("writing copy mark: %w", err)
	}
	return nil
}

// Consume reports whether text matches a fresh mark. A matching mark is
// cleared so the same text copied again later is captured normally.
func (m *CopyMarks) Consume(ctx context.Context, text string) (bool, error) {
	data, err := m.storage.Get(ctx, CopyMarkKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading copy mark: %w", err)
	}

	var mark copyMark
	if err := json.Unmarshal(data, &mark); err != nil {
		return false, fmt.Errorf("decoding copy mark: %w", err)
	}
	if mark.Digest == "" || mark.Digest != digest(text) {
		return false, nil
	}
	age := m.clock.Now().Sub(time.UnixMilli(mark.Timestamp))
	if age > CopyMarkTTL {
		return false, nil
	}

	if err := m.storage.Put(ctx, CopyMarkKey, []byte(`{}`)); err != nil {
		return true, fmt.Errorf("clearing copy mark: %w", err)
	}
	return true, nil
}
