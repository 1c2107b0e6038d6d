package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipstack/internal/capture"
	"clipstack/internal/clip"
	"clipstack/internal/config"
	"clipstack/internal/router"
	"clipstack/internal/storage"
)

var (
	// ErrEntryNotFound is returned when no entry matches an id or id prefix.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrAmbiguousID is returned when an id prefix matches more than one entry.
	ErrAmbiguousID = errors.New("ambiguous entry id")
	// ErrBackupUnsupported is returned by Backup for backends without snapshots.
	ErrBackupUnsupported = errors.New("storage backend does not support backup")
)

// Options controls how a ClipApp is set up for one CLI command.
type Options struct {
	Command string
	// Stderr mirrors log output to stderr in addition to the log file.
	Stderr bool
}

// ClipApp is the application layer between the CLI and the history.
// It constructs all dependencies from config, exposes high-level operations
// that go through the message router, and releases resources on Close.
type ClipApp struct {
	cfg     *config.Config
	storage clip.Storage
	history *clip.HistoryManager
	prefs   *clip.Preferences
	marks   *clip.CopyMarks
	router  *router.Router
	logger  *slog.Logger
	log     clip.Logger
	op      *Operation
	logFile *os.File
}

// NewClipApp creates a fully wired ClipApp from the given config.
// The caller must call Close when done.
func NewClipApp(ctx context.Context, cfg *config.Config, opts Options) (*ClipApp, error) {
	runID := uuid.NewString()
	logger, logFile, err := newLogger(cfg.LogDir, runID, ParseLevel(cfg.LogLevel), opts.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := storage.NewStorageFromConfig(ctx, cfg.Storage)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	if err := store.ValidateSetup(ctx); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("validating %s storage: %w", cfg.Storage.Type, err)
	}

	log := &slogAdapter{l: logger}
	history := clip.NewHistoryManager(clip.NewEntryStore(store), log, clip.RealClock{}, clip.UUIDGenerator{})
	r := router.New(history, log)
	r.SetMaxTextBytes(cfg.Capture.MaxBytes)

	a := &ClipApp{
		cfg:     cfg,
		storage: store,
		history: history,
		prefs:   clip.NewPreferences(store),
		marks:   clip.NewCopyMarks(store, clip.RealClock{}),
		router:  r,
		logger:  logger,
		log:     log,
		op:      NewOperation(runID, opts.Command, time.Now()),
		logFile: logFile,
	}
	logger.Debug("command started", "command", opts.Command, "storage", cfg.Storage.Type)
	return a, nil
}

// Config returns the configuration the app was built from.
func (a *ClipApp) Config() *config.Config { return a.cfg }

// Router returns the message router serving the history.
func (a *ClipApp) Router() *router.Router { return a.router }

// Logger returns the app logger.
func (a *ClipApp) Logger() *slog.Logger { return a.logger }

// Dispatch sends req through the router and turns unhandled or failed
// requests into errors.
func (a *ClipApp) Dispatch(ctx context.Context, req router.Request) (*router.Response, error) {
	resp, ok := a.router.Handle(ctx, req)
	if !ok {
		return nil, fmt.Errorf("unhandled request type %q", req.Type)
	}
	if !resp.OK {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

// ListEntries returns entries whose text contains query, in display order.
// A positive limit caps the result.
func (a *ClipApp) ListEntries(ctx context.Context, query string, limit int) ([]clip.Entry, error) {
	resp, err := a.Dispatch(ctx, router.Request{Type: router.TypeList})
	if err != nil {
		return nil, err
	}
	entries := clip.SortForDisplay(clip.Filter(resp.Entries, query))
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// AddEntry records text as a capture. Text that is empty after trimming is
// ignored and (nil, nil) is returned.
func (a *ClipApp) AddEntry(ctx context.Context, text string) (*clip.Entry, error) {
	text = strings.TrimSpace(text)
	resp, err := a.Dispatch(ctx, router.Request{Type: router.TypeCapture, Text: text})
	if err != nil {
		return nil, err
	}
	return resp.Entry, nil
}

// FindEntry returns the entry whose id equals idOrPrefix, or the single
// entry whose id starts with it.
func (a *ClipApp) FindEntry(ctx context.Context, idOrPrefix string) (*clip.Entry, error) {
	if idOrPrefix == "" {
		return nil, router.ErrMissingID
	}
	resp, err := a.Dispatch(ctx, router.Request{Type: router.TypeList})
	if err != nil {
		return nil, err
	}

	var match *clip.Entry
	for i := range resp.Entries {
		e := &resp.Entries[i]
		if e.ID == idOrPrefix {
			return e, nil
		}
		if strings.HasPrefix(e.ID, idOrPrefix) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, idOrPrefix)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, idOrPrefix)
	}
	return match, nil
}

// RemoveEntry deletes the entry matching idOrPrefix.
func (a *ClipApp) RemoveEntry(ctx context.Context, idOrPrefix string) (*clip.Entry, error) {
	entry, err := a.FindEntry(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	if _, err := a.Dispatch(ctx, router.Request{Type: router.TypeRemove, ID: entry.ID}); err != nil {
		return nil, err
	}
	return entry, nil
}

// SetPinned round-trips the full entry with Pinned set to pinned.
func (a *ClipApp) SetPinned(ctx context.Context, idOrPrefix string, pinned bool) (*clip.Entry, error) {
	entry, err := a.FindEntry(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	updated := *entry
	updated.Pinned = pinned
	if _, err := a.Dispatch(ctx, router.Request{Type: router.TypeUpdate, Entry: &updated}); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CopyEntry writes the entry text to cb. A clipboard failure is logged and
// returned; the history is never modified. The write is marked in storage so
// a `serve` watcher sharing the backend does not capture it again.
func (a *ClipApp) CopyEntry(ctx context.Context, idOrPrefix string, cb capture.Clipboard) (*clip.Entry, error) {
	entry, err := a.FindEntry(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	if err := a.marks.Mark(ctx, entry.Text); err != nil {
		a.logger.Warn("copy mark not recorded", "id", entry.ID, "error", err)
	}
	if err := cb.WriteText(entry.Text); err != nil {
		a.logger.Error("copy to clipboard failed", "id", entry.ID, "error", err)
		return nil, fmt.Errorf("copying entry %s: %w", entry.ID, err)
	}
	a.logger.Info("entry copied to clipboard", "id", entry.ID)
	return entry, nil
}

// Theme returns the stored display theme.
func (a *ClipApp) Theme(ctx context.Context) (clip.Theme, error) {
	return a.prefs.Theme(ctx)
}

// SetTheme validates and stores a display theme.
func (a *ClipApp) SetTheme(ctx context.Context, raw string) (clip.Theme, error) {
	theme, err := clip.ParseTheme(raw)
	if err != nil {
		return "", err
	}
	if err := a.prefs.SetTheme(ctx, theme); err != nil {
		return "", err
	}
	a.logger.Info("theme changed", "theme", string(theme))
	return theme, nil
}

// Backup writes a consistent snapshot of the store to destPath.
// Only backends that support snapshots (sqlite) can be backed up.
func (a *ClipApp) Backup(ctx context.Context, destPath string) error {
	b, ok := a.storage.(interface {
		BackupTo(ctx context.Context, destPath string) error
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackupUnsupported, a.cfg.Storage.Type)
	}
	if err := b.BackupTo(ctx, destPath); err != nil {
		return fmt.Errorf("backing up storage: %w", err)
	}
	a.logger.Info("storage backed up", "dest", destPath)
	return nil
}

// Fail records that the command failed, for the closing log line.
func (a *ClipApp) Fail(err error) {
	a.op.Fail(err)
}

// Close logs the command outcome and closes storage and the log file.
func (a *ClipApp) Close() error {
	var firstErr error

	a.logger.Debug("command finished",
		"command", a.op.Command,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(time.Now()).String(),
	)

	if err := a.storage.Close(); err != nil {
		firstErr = fmt.Errorf("closing storage: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
