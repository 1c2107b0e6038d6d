// Package router dispatches capture and display requests to the history.
package router

import (
	"context"
	"errors"
	"fmt"

	"clipstack/internal/clip"
)

var (
	// ErrMissingID is returned for a REMOVE_ENTRY request without an id.
	ErrMissingID = errors.New("missing entry id")
	// ErrMissingEntry is returned for an UPDATE_ENTRY request without an entry.
	ErrMissingEntry = errors.New("missing entry")
	// ErrTextTooLarge is returned for a capture whose text exceeds the limit.
	ErrTextTooLarge = errors.New("captured text too large")
)

// DefaultMaxTextBytes bounds the text of a single captured entry. It keeps
// any one entry well inside a 1 MiB native messaging reply.
const DefaultMaxTextBytes = 256 << 10

// History is the subset of clip.HistoryManager the router drives.
type History interface {
	Append(ctx context.Context, text string) (*clip.Entry, error)
	List(ctx context.Context) ([]clip.Entry, error)
	RemoveByID(ctx context.Context, id string) error
	UpdateByID(ctx context.Context, entry clip.Entry) error
}

// HandlerFunc handles one request type. Handlers return only after any
// write to the history has completed.
type HandlerFunc func(ctx context.Context, req Request) *Response

// Router maps request types to handlers. It holds no state between requests.
type Router struct {
	history      History
	logger       clip.Logger
	maxTextBytes int
	handlers     map[string]HandlerFunc
}

// New creates a Router with the built-in handlers registered.
func New(history History, logger clip.Logger) *Router {
	r := &Router{
		history:      history,
		logger:       logger,
		maxTextBytes: DefaultMaxTextBytes,
		handlers:     make(map[string]HandlerFunc),
	}
	r.registerDefaults()
	return r
}

// SetMaxTextBytes changes the capture size limit. n <= 0 restores the default.
func (r *Router) SetMaxTextBytes(n int) {
	if n <= 0 {
		n = DefaultMaxTextBytes
	}
	r.maxTextBytes = n
}

// Register adds or replaces the handler for a request type.
func (r *Router) Register(reqType string, handler HandlerFunc) {
	r.handlers[reqType] = handler
}

// Handle dispatches req. The bool is false when no handler exists for
// req.Type; the request is dropped and the caller must not reply.
func (r *Router) Handle(ctx context.Context, req Request) (*Response, bool) {
	handler, ok := r.handlers[req.Type]
	if !ok {
		r.logger.Warn("unknown request type dropped", "type", req.Type)
		return nil, false
	}

	r.logger.Debug("handling request", "type", req.Type)
	return handler(ctx, req), true
}

// Send dispatches req and discards the response. It satisfies the
// fire-and-forget contract of capture surfaces.
func (r *Router) Send(ctx context.Context, req Request) error {
	resp, ok := r.Handle(ctx, req)
	if !ok {
		return fmt.Errorf("unhandled request type %q", req.Type)
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

func (r *Router) registerDefaults() {
	r.Register(TypeCapture, r.handleCapture)
	r.Register(TypeList, r.handleList)
	r.Register(TypeRemove, r.handleRemove)
	r.Register(TypeUpdate, r.handleUpdate)
}

func (r *Router) handleCapture(ctx context.Context, req Request) *Response {
	if len(req.Text) > r.maxTextBytes {
		r.logger.Warn("capture rejected", "length", len(req.Text), "max_bytes", r.maxTextBytes)
		return errorResponse(fmt.Errorf("%w: %d bytes, limit %d", ErrTextTooLarge, len(req.Text), r.maxTextBytes))
	}
	entry, err := r.history.Append(ctx, req.Text)
	if err != nil {
		r.logger.Error("capture failed", "error", err)
		return errorResponse(err)
	}
	return &Response{OK: true, Entry: entry}
}

func (r *Router) handleList(ctx context.Context, _ Request) *Response {
	entries, err := r.history.List(ctx)
	if err != nil {
		r.logger.Error("list failed", "error", err)
		return errorResponse(err)
	}
	return &Response{OK: true, Entries: entries}
}

func (r *Router) handleRemove(ctx context.Context, req Request) *Response {
	if req.ID == "" {
		return errorResponse(ErrMissingID)
	}
	if err := r.history.RemoveByID(ctx, req.ID); err != nil {
		r.logger.Error("remove failed", "id", req.ID, "error", err)
		return errorResponse(err)
	}
	return okResponse()
}

func (r *Router) handleUpdate(ctx context.Context, req Request) *Response {
	if req.Entry == nil {
		return errorResponse(ErrMissingEntry)
	}
	if req.Entry.ID == "" {
		return errorResponse(ErrMissingID)
	}
	if err := r.history.UpdateByID(ctx, *req.Entry); err != nil {
		r.logger.Error("update failed", "id", req.Entry.ID, "error", err)
		return errorResponse(err)
	}
	return okResponse()
}
