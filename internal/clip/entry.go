package clip

// Entry is one recorded clipboard capture.
// ID and Timestamp are fixed at creation; only Pinned changes afterwards.
type Entry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // milliseconds since the Unix epoch
	Pinned    bool   `json:"pinned"`
}
