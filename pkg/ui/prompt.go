package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Prompter asks questions on an output stream and reads answers line by line.
type Prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed answer, or def when the answer is
// empty.
func (p *Prompter) Ask(label, def string) (string, error) {
	question := label + ": "
	if def != "" {
		question = fmt.Sprintf("%s [%s]: ", label, def)
	}

	if _, err := io.WriteString(p.out, question); err != nil {
		return "", err
	}

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}

	if answer == "" {
		return def, nil
	}

	return answer, nil
}

// AskSecret is like Ask but doesn't echo the answer when reading from a
// terminal. An empty answer returns an empty string.
func (p *Prompter) AskSecret(label string) (string, error) {
	if _, err := io.WriteString(p.out, label+": "); err != nil {
		return "", err
	}

	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.readLine()
	}

	secret, err := term.ReadPassword(int(f.Fd()))
	_, _ = io.WriteString(p.out, "\n")
	if err != nil {
		return "", errors.Wrap(err, "failed to read input")
	}

	return strings.TrimSpace(string(secret)), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "failed to read input")
	}

	return strings.TrimSpace(line), nil
}
