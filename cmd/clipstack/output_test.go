package main

import (
	"strings"
	"testing"
	"time"

	"clipstack/internal/clip"
	"clipstack/internal/config"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 6, "hello…"},
		{"multibyte", "héllo wörld", 4, "hél…"},
		{"width one", "hello", 1, "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("id-1"); got != "id-1" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local).UnixMilli()

	t.Run("pinned marker and flattened text", func(t *testing.T) {
		e := clip.Entry{ID: "abcdef0123", Text: "line one\n  line two", Timestamp: ts, Pinned: true}
		got := formatEntry(e, 0)
		want := "* abcdef01  2024-01-15 10:30  line one line two"
		if got != want {
			t.Errorf("formatEntry() = %q, want %q", got, want)
		}
	})

	t.Run("truncated to width", func(t *testing.T) {
		e := clip.Entry{ID: "id-1", Text: strings.Repeat("x", 100), Timestamp: ts}
		got := formatEntry(e, 40)
		if n := len([]rune(got)); n != 40 {
			t.Errorf("len = %d, want 40", n)
		}
		if !strings.HasPrefix(got, "  id-1    ") {
			t.Errorf("formatEntry() = %q", got)
		}
	})
}

func TestDescribeStorage(t *testing.T) {
	tests := []struct {
		sc   config.StorageConfig
		want string
	}{
		{config.StorageConfig{Type: "memory"}, "memory"},
		{config.StorageConfig{Type: "sqlite", SQLitePath: "/x.db"}, "sqlite /x.db"},
		{config.StorageConfig{Type: "s3", S3Bucket: "b", S3Prefix: "p"}, `s3 bucket=b prefix="p"`},
	}
	for _, tt := range tests {
		if got := describeStorage(tt.sc); got != tt.want {
			t.Errorf("describeStorage(%+v) = %q, want %q", tt.sc, got, tt.want)
		}
	}
}
