package main

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/term"

	"clipstack/internal/clip"
	"clipstack/internal/config"
)

const shortIDLen = 8

// terminalWidth returns the width of f when it is a terminal, or 0.
func terminalWidth(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// formatEntry renders one line: pin marker, short id, time and text with
// newlines flattened. A positive width truncates the line to fit.
func formatEntry(e clip.Entry, width int) string {
	marker := " "
	if e.Pinned {
		marker = "*"
	}
	ts := time.UnixMilli(e.Timestamp).Local().Format("2006-01-02 15:04")
	text := strings.Join(strings.Fields(e.Text), " ")

	line := fmt.Sprintf("%s %-8s  %s  %s", marker, shortID(e.ID), ts, text)
	if width > 0 {
		line = truncate(line, width)
	}
	return line
}

// truncate shortens s to at most width runes, ending with an ellipsis when cut.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= 1 {
		return string([]rune(s)[:width])
	}
	return string([]rune(s)[:width-1]) + "…"
}

func describeStorage(sc config.StorageConfig) string {
	switch sc.Type {
	case "filesystem":
		return "filesystem " + sc.FSRoot
	case "sqlite":
		return "sqlite " + sc.SQLitePath
	case "redis":
		return fmt.Sprintf("redis %s db=%d prefix=%q", sc.RedisAddr, sc.RedisDB, sc.RedisPrefix)
	case "s3":
		return fmt.Sprintf("s3 bucket=%s prefix=%q", sc.S3Bucket, sc.S3Prefix)
	default:
		return sc.Type
	}
}
