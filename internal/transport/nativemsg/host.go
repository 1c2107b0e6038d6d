package nativemsg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"clipstack/internal/clip"
	"clipstack/internal/router"
)

// Handler dispatches a decoded request. *router.Router satisfies it.
type Handler interface {
	Handle(ctx context.Context, req router.Request) (*router.Response, bool)
}

// Host serves requests arriving over native messaging frames.
type Host struct {
	handler Handler
	logger  clip.Logger
}

// NewHost creates a Host that dispatches to handler.
func NewHost(handler Handler, logger clip.Logger) *Host {
	return &Host{handler: handler, logger: logger}
}

// Serve reads frames from r until EOF or ctx is cancelled, handling each in
// arrival order and writing a reply to w for every handled request.
// A clean EOF returns nil.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := ReadMessage(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.logger.Info("native messaging stream closed")
				return nil
			}
			return err
		}

		var req router.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			h.logger.Warn("malformed native message", "error", err)
			if err := WriteMessage(w, &router.Response{OK: false, Error: "malformed request: " + err.Error()}); err != nil {
				return err
			}
			continue
		}

		resp, ok := h.handler.Handle(ctx, req)
		if !ok {
			continue
		}
		if err := h.reply(w, resp); err != nil {
			return err
		}
	}
}

func (h *Host) reply(w io.Writer, resp *router.Response) error {
	err := WriteMessage(w, resp)
	if errors.Is(err, ErrMessageTooLarge) && len(resp.Entries) > 0 {
		fitted, dropped := fitEntries(resp, MaxOutgoing)
		h.logger.Warn("list reply truncated to native messaging limit", "entries", len(fitted.Entries), "dropped", dropped)
		err = WriteMessage(w, fitted)
	}
	if errors.Is(err, ErrMessageTooLarge) {
		h.logger.Warn("response exceeds native messaging limit", "error", err)
		return WriteMessage(w, &router.Response{OK: false, Error: err.Error()})
	}
	if err != nil {
		return fmt.Errorf("replying: %w", err)
	}
	return nil
}

// fitEntries returns a copy of resp whose encoding fits in limit bytes.
// Entries are kept in order from the head of the list (newest first); an
// entry that does not fit in the remaining budget is left out. The copy is
// marked Truncated when anything was dropped.
func fitEntries(resp *router.Response, limit int) (*router.Response, int) {
	out := *resp
	out.Entries = nil
	out.Truncated = true

	base, err := json.Marshal(&out)
	if err != nil {
		return &out, len(resp.Entries)
	}
	// `,"entries":[]` is added once there is at least one entry.
	budget := limit - len(base) - len(`,"entries":[]`)

	kept := make([]clip.Entry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		cost := len(data)
		if len(kept) > 0 {
			cost++ // separating comma
		}
		if cost > budget {
			continue
		}
		budget -= cost
		kept = append(kept, e)
	}
	out.Entries = kept
	return &out, len(resp.Entries) - len(kept)
}
