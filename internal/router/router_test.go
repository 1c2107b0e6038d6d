package router_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"clipstack/internal/clip"
	"clipstack/internal/router"
	"clipstack/internal/testutil"
)

func newTestRouter(t *testing.T) (*router.Router, *clip.HistoryManager) {
	t.Helper()
	h, _, _ := testutil.NewTestHistory()
	return router.New(h, clip.NewNopLogger()), h
}

func mustHandle(t *testing.T, r *router.Router, req router.Request) *router.Response {
	t.Helper()
	resp, ok := r.Handle(context.Background(), req)
	if !ok {
		t.Fatalf("Handle(%s) not handled", req.Type)
	}
	if resp == nil {
		t.Fatalf("Handle(%s) returned nil response", req.Type)
	}
	return resp
}

func TestRouter_CaptureThenList(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := mustHandle(t, r, router.Request{Type: router.TypeCapture, Text: "hello"})
	if !resp.OK {
		t.Fatalf("capture response = %+v, want ok", resp)
	}
	if resp.Entry == nil || resp.Entry.Text != "hello" {
		t.Fatalf("capture entry = %+v, want text hello", resp.Entry)
	}

	resp = mustHandle(t, r, router.Request{Type: router.TypeList})
	if !resp.OK {
		t.Fatalf("list response = %+v, want ok", resp)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Text != "hello" {
		t.Errorf("list entries = %+v, want one hello entry", resp.Entries)
	}
}

func TestRouter_CaptureEmptyText(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := mustHandle(t, r, router.Request{Type: router.TypeCapture, Text: "  "})
	if !resp.OK || resp.Entry != nil {
		t.Errorf("response = %+v, want ok with no entry", resp)
	}

	resp = mustHandle(t, r, router.Request{Type: router.TypeList})
	if len(resp.Entries) != 0 {
		t.Errorf("entries = %+v, want none", resp.Entries)
	}
}

func TestRouter_CaptureSizeLimit(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		size   int
		wantOK bool
	}{
		{"default limit accepts", 0, router.DefaultMaxTextBytes, true},
		{"default limit rejects", 0, router.DefaultMaxTextBytes + 1, false},
		{"custom limit accepts", 10, 10, true},
		{"custom limit rejects", 10, 11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, h := newTestRouter(t)
			r.SetMaxTextBytes(tt.limit)

			resp := mustHandle(t, r, router.Request{Type: router.TypeCapture, Text: strings.Repeat("z", tt.size)})
			if resp.OK != tt.wantOK {
				t.Fatalf("capture ok = %t, want %t (error %q)", resp.OK, tt.wantOK, resp.Error)
			}
			if !tt.wantOK && !strings.Contains(resp.Error, router.ErrTextTooLarge.Error()) {
				t.Errorf("error = %q, want %q", resp.Error, router.ErrTextTooLarge)
			}

			entries, err := h.List(context.Background())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if want := map[bool]int{true: 1, false: 0}[tt.wantOK]; len(entries) != want {
				t.Errorf("stored %d entries, want %d", len(entries), want)
			}
		})
	}
}

func TestRouter_Remove(t *testing.T) {
	r, h := newTestRouter(t)
	ctx := context.Background()
	a, _ := h.Append(ctx, "a")
	h.Append(ctx, "b")

	tests := []struct {
		name    string
		id      string
		wantOK  bool
		wantErr error
		wantLen int
	}{
		{"missing id", "", false, router.ErrMissingID, 2},
		{"unknown id", "nope", true, nil, 2},
		{"existing id", a.ID, true, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := mustHandle(t, r, router.Request{Type: router.TypeRemove, ID: tt.id})
			if resp.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (error %q)", resp.OK, tt.wantOK, resp.Error)
			}
			if tt.wantErr != nil && resp.Error != tt.wantErr.Error() {
				t.Errorf("Error = %q, want %q", resp.Error, tt.wantErr.Error())
			}
			entries, _ := h.List(ctx)
			if len(entries) != tt.wantLen {
				t.Errorf("len(entries) = %d, want %d", len(entries), tt.wantLen)
			}
		})
	}
}

func TestRouter_UpdatePin(t *testing.T) {
	r, h := newTestRouter(t)
	ctx := context.Background()
	a, _ := h.Append(ctx, "a")
	h.Append(ctx, "b")

	pinned := *a
	pinned.Pinned = true
	resp := mustHandle(t, r, router.Request{Type: router.TypeUpdate, Entry: &pinned})
	if !resp.OK {
		t.Fatalf("update response = %+v, want ok", resp)
	}

	resp = mustHandle(t, r, router.Request{Type: router.TypeList})
	display := clip.SortForDisplay(resp.Entries)
	if display[0].ID != a.ID || !display[0].Pinned {
		t.Errorf("display[0] = %+v, want pinned %q first", display[0], a.ID)
	}
}

func TestRouter_UpdateValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name    string
		entry   *clip.Entry
		wantErr error
	}{
		{"missing entry", nil, router.ErrMissingEntry},
		{"entry without id", &clip.Entry{Text: "x"}, router.ErrMissingID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := mustHandle(t, r, router.Request{Type: router.TypeUpdate, Entry: tt.entry})
			if resp.OK {
				t.Fatal("OK = true, want false")
			}
			if resp.Error != tt.wantErr.Error() {
				t.Errorf("Error = %q, want %q", resp.Error, tt.wantErr.Error())
			}
		})
	}
}

func TestRouter_UnknownTypeIsDropped(t *testing.T) {
	r, _ := newTestRouter(t)

	resp, ok := r.Handle(context.Background(), router.Request{Type: "SOMETHING_ELSE"})
	if ok {
		t.Error("Handle() handled = true, want false")
	}
	if resp != nil {
		t.Errorf("Handle() response = %+v, want nil", resp)
	}
}

func TestRouter_StoreFailureReturnsError(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFailingStorage(testutil.NewTestStorage())
	h := clip.NewHistoryManager(clip.NewEntryStore(fs), clip.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	seed, err := h.Append(ctx, "seed")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	r := router.New(h, clip.NewNopLogger())

	tests := []struct {
		name     string
		req      router.Request
		failGets bool
	}{
		{"capture write", router.Request{Type: router.TypeCapture, Text: "x"}, false},
		{"capture read", router.Request{Type: router.TypeCapture, Text: "x"}, true},
		{"list read", router.Request{Type: router.TypeList}, true},
		{"remove write", router.Request{Type: router.TypeRemove, ID: seed.ID}, false},
		{"update write", router.Request{Type: router.TypeUpdate, Entry: seed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs.FailGets(tt.failGets)
			fs.FailPuts(!tt.failGets)
			defer func() {
				fs.FailGets(false)
				fs.FailPuts(false)
			}()

			resp := mustHandle(t, r, tt.req)
			if resp.OK {
				t.Fatal("OK = true, want false")
			}
			if resp.Error == "" {
				t.Error("Error is empty")
			}
		})
	}
}

func TestRouter_Send(t *testing.T) {
	ctx := context.Background()
	r, h := newTestRouter(t)

	if err := r.Send(ctx, router.Request{Type: router.TypeCapture, Text: "fire"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	entries, _ := h.List(ctx)
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}

	if err := r.Send(ctx, router.Request{Type: "NOPE"}); err == nil {
		t.Error("Send() expected error for unknown type")
	}
	if err := r.Send(ctx, router.Request{Type: router.TypeRemove}); err == nil || err.Error() != router.ErrMissingID.Error() {
		t.Errorf("Send() error = %v, want %v", err, router.ErrMissingID)
	}
}

func TestRouter_Register(t *testing.T) {
	r, _ := newTestRouter(t)
	called := false
	r.Register("PING", func(ctx context.Context, req router.Request) *router.Response {
		called = true
		return &router.Response{OK: true}
	})

	if _, ok := r.Handle(context.Background(), router.Request{Type: "PING"}); !ok || !called {
		t.Errorf("custom handler not invoked: handled=%v called=%v", ok, called)
	}
}

func TestRequest_WireFormat(t *testing.T) {
	raw := `{"type":"UPDATE_ENTRY","entry":{"id":"a","text":"t","timestamp":7,"pinned":true}}`
	var req router.Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := clip.Entry{ID: "a", Text: "t", Timestamp: 7, Pinned: true}
	if req.Type != router.TypeUpdate || req.Entry == nil || *req.Entry != want {
		t.Errorf("decoded = %+v, want UPDATE_ENTRY with %+v", req, want)
	}

	data, err := json.Marshal(router.Response{OK: false, Error: "boom"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"ok":false,"error":"boom"}` {
		t.Errorf("encoded = %s", data)
	}
}
