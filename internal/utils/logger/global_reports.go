package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StringListReport collects lines from concurrent workers and writes them
// to a text file once the run is over.
type StringListReport struct {
	Title string

	mu    sync.Mutex
	items []string
}

// NewStringListReport returns an empty report.
func NewStringListReport(title string) *StringListReport {
	return &StringListReport{Title: title}
}

// Add appends one line.
func (r *StringListReport) Add(item string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// Items returns a copy of the collected lines.
func (r *StringListReport) Items() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.items...)
}

// WriteToFile appends the report to <dir>/fetchurl-<title>.txt, followed by
// a blank line, and clears it. The title is sanitized for use in a filename.
func (r *StringListReport) WriteToFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating base path: %w", err)
	}

	reportFullPath := filepath.Join(dir, fmt.Sprintf("fetchurl-%s.txt", safeTitle(r.Title)))

	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return "", fmt.Errorf("writing to file: %w", err)
		}
	}
	r.items = nil
	if _, err := fmt.Fprintln(f); err != nil {
		return "", fmt.Errorf("writing new line to file: %w", err)
	}
	return reportFullPath, nil
}

func safeTitle(title string) string {
	if title == "" {
		return "untitled"
	}
	out := make([]rune, 0, len(title))
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
