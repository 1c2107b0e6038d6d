// Package capture watches the system clipboard and records new text copies.
package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"clipstack/internal/clip"
	"clipstack/internal/config"
	"clipstack/internal/router"
)

// Sender delivers a capture request. Delivery is fire-and-forget: errors are
// logged by the watcher and never retried. *router.Router satisfies it.
type Sender interface {
	Send(ctx context.Context, req router.Request) error
}

// CopyMarker recognises text that was written back to the clipboard from the
// history, possibly by another process. *clip.CopyMarks satisfies it.
type CopyMarker interface {
	Consume(ctx context.Context, text string) (bool, error)
}

// Watcher polls a Clipboard and sends a CLIPBOARD_COPIED request for each new
// piece of text.
type Watcher struct {
	clipboard Clipboard
	sender    Sender
	marks     CopyMarker
	logger    clip.Logger

	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	maxBytes int
	ignore   *IgnoreMatcher
	lastSeen string
	primed   bool
	reset    chan struct{}
}

// NewWatcher creates a Watcher configured from cfg. marks may be nil, in
// which case every new text is captured.
func NewWatcher(cb Clipboard, sender Sender, marks CopyMarker, logger clip.Logger, cfg config.CaptureConfig) *Watcher {
	w := &Watcher{
		clipboard: cb,
		sender:    sender,
		marks:     marks,
		logger:    logger,
		reset:     make(chan struct{}, 1),
	}
	w.apply(cfg)
	return w
}

// Reconfigure swaps in new settings. Takes effect on the next poll.
func (w *Watcher) Reconfigure(cfg config.CaptureConfig) {
	w.mu.Lock()
	w.apply(cfg)
	w.mu.Unlock()

	select {
	case w.reset <- struct{}{}:
	default:
	}
	w.logger.Info("capture reconfigured", "enabled", cfg.Enabled, "ignore_patterns", len(cfg.Ignore))
}

// apply must be called with mu held or before the watcher is shared.
func (w *Watcher) apply(cfg config.CaptureConfig) {
	w.enabled = cfg.Enabled
	w.interval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	if w.interval <= 0 {
		w.interval = config.DefaultPollIntervalMS * time.Millisecond
	}
	w.maxBytes = cfg.MaxBytes
	if w.maxBytes <= 0 {
		w.maxBytes = config.DefaultMaxBytes
	}
	w.ignore = NewIgnoreMatcher(cfg.Ignore, w.logger)
}

// Run polls until ctx is cancelled. The clipboard content present at start
// is treated as already seen.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	interval := w.interval
	w.mu.Unlock()

	t := time.NewTicker(interval)
	defer t.Stop()

	w.logger.Info("capture watcher started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("capture watcher stopped")
			return ctx.Err()
		case <-w.reset:
			w.mu.Lock()
			interval = w.interval
			w.mu.Unlock()
			t.Reset(interval)
		case <-t.C:
			w.Poll(ctx)
		}
	}
}

// Poll reads the clipboard once and sends a capture when the text is new.
// It reports whether a capture was sent.
func (w *Watcher) Poll(ctx context.Context) bool {
	w.mu.Lock()
	enabled := w.enabled
	w.mu.Unlock()
	if !enabled {
		return false
	}

	raw, err := w.clipboard.ReadText()
	if err != nil {
		w.logger.Debug("clipboard read failed", "error", err)
		return false
	}

	text, ok := w.accept(raw)
	if !ok {
		return false
	}

	if w.marks != nil {
		recopied, err := w.marks.Consume(ctx, text)
		if err != nil {
			w.logger.Warn("copy mark check failed", "error", err)
		}
		if recopied {
			w.logger.Debug("capture skipped, entry copied back from history")
			return false
		}
	}

	if err := w.sender.Send(ctx, router.Request{Type: router.TypeCapture, Text: text}); err != nil {
		w.logger.Error("capture not recorded", "error", err)
		return false
	}
	return true
}

// accept applies the capture filters and records text as last seen.
func (w *Watcher) accept(raw string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text := strings.TrimSpace(raw)
	if !w.primed {
		w.primed = true
		w.lastSeen = text
		return "", false
	}
	if text == "" || text == w.lastSeen {
		return "", false
	}
	w.lastSeen = text

	if len(text) > w.maxBytes {
		w.logger.Info("capture skipped, text too large", "length", len(text), "max_bytes", w.maxBytes)
		return "", false
	}
	if w.ignore.Match(text) {
		w.logger.Debug("capture skipped, matched ignore pattern")
		return "", false
	}
	return text, true
}
