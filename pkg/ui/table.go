// Package ui renders command output: tables, job status, upload progress,
// highlighted JSON and interactive prompts.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

const (
	emptyCell  = "-"
	dateLayout = "2006-01-02 15:04"
)

// Table writes aligned columns.
type Table struct {
	tw *tabwriter.Writer
}

// NewTable starts a table with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	t := &Table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.Row(headers...)
	return t
}

// Row appends a row. Empty cells are rendered as "-".
func (t *Table) Row(cols ...string) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		c = strings.ReplaceAll(strings.TrimSpace(c), "\n", " ")
		if c == "" {
			c = emptyCell
		}
		cells[i] = c
	}

	_, _ = fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

// Flush writes the aligned table.
func (t *Table) Flush() error {
	return errors.Wrap(t.tw.Flush(), "failed to write table")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Local().Format(dateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
