package router

import "clipstack/internal/clip"

// Request types understood by the router. The names match the messages the
// browser extension sends.
const (
	TypeCapture = "CLIPBOARD_COPIED"
	TypeList    = "GET_ENTRIES"
	TypeRemove  = "REMOVE_ENTRY"
	TypeUpdate  = "UPDATE_ENTRY"
)

// Request is a single message from a capture or display surface.
// Only the fields relevant to Type are set.
type Request struct {
	Type  string      `json:"type"`
	Text  string      `json:"text,omitempty"`
	ID    string      `json:"id,omitempty"`
	Entry *clip.Entry `json:"entry,omitempty"`
}

// Response is the reply to a handled Request. Truncated is set when a
// transport had to leave entries out of a LIST reply to fit its frame limit.
type Response struct {
	OK        bool         `json:"ok"`
	Error     string       `json:"error,omitempty"`
	Entries   []clip.Entry `json:"entries,omitempty"`
	Entry     *clip.Entry  `json:"entry,omitempty"`
	Truncated bool         `json:"truncated,omitempty"`
}

func okResponse() *Response {
	return &Response{OK: true}
}

func errorResponse(err error) *Response {
	return &Response{OK: false, Error: err.Error()}
}
