package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the log at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	seen := 0
	next := 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		seen++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if seen < maxLines {
		return append([]string(nil), ring[:seen]...), nil
	}
	lines := make([]string, 0, maxLines)
	lines = append(lines, ring[next:]...)
	lines = append(lines, ring[:next]...)
	return lines, nil
}

// LevelOf extracts the level= field written by slog's text handler. Lines
// without one report ok=false.
func LevelOf(line string) (slog.Level, bool) {
	idx := strings.Index(line, "level=")
	if idx < 0 {
		return 0, false
	}
	field := line[idx+len("level="):]
	if end := strings.IndexByte(field, ' '); end >= 0 {
		field = field[:end]
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(field)); err != nil {
		return 0, false
	}
	return lvl, true
}

// Filter keeps lines at or above min. Lines with no recognizable level are
// kept so multi-line values are not lost.
func Filter(lines []string, min slog.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if lvl, ok := LevelOf(line); ok && lvl < min {
			continue
		}
		out = append(out, line)
	}
	return out
}
