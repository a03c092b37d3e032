package ui

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const (
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// JSON pretty prints src, with syntax highlighting when color is set.
func JSON(w io.Writer, src []byte, color bool) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, src, "", "  "); err != nil {
		return errors.Wrap(err, "invalid JSON")
	}
	pretty.WriteByte('\n')

	if !color {
		_, err := w.Write(pretty.Bytes())
		return err
	}

	return errors.Wrap(
		quick.Highlight(w, pretty.String(), "json", highlightFormatter, highlightStyle),
		"failed to highlight JSON",
	)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
