// Package dotenv parses .env files and loads them into the process environment.
//
// Supported syntax:
//
//	# comments and blank lines are ignored
//	export ADAPTIVE_BASE_URL=https://app.adaptive.ml
//	DEFAULT_USE_CASE = support-bot   # trailing comments
//	SINGLE='taken literally, \n included'
//	DOUBLE="escapes like \n and \" are expanded"
//	EMPTY=
//
// Variables already present in the environment are never overridden.
package dotenv

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

type (
	// Variable is a single assignment from a .env file.
	Variable struct {
		Key   string
		Value string
	}

	file struct {
		Entries []*entry `parser:"( @@ | EOL )*"`
	}

	entry struct {
		Export bool   `parser:"@Export?"`
		Key    string `parser:"@Ident Assign"`
		Value  *value `parser:"@@?"`
	}

	value struct {
		Single *string `parser:"  @SingleQuoted"`
		Double *string `parser:"| @DoubleQuoted"`
		Bare   *string `parser:"| @Bare"`
	}
)

var (
	// dotenvLexer switches into the Value state after "=" so that unquoted
	// values may contain spaces and "=" up to the end of the line.
	dotenvLexer = lexer.MustStateful(lexer.Rules{
		"Root": {
			{Name: "Comment", Pattern: `#[^\n]*`},
			{Name: "Whitespace", Pattern: `[ \t\r]+`},
			{Name: "EOL", Pattern: `\n`},
			{Name: "Export", Pattern: `export\b`},
			{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.]*`},
			{Name: "Assign", Pattern: `=`, Action: lexer.Push("Value")},
		},
		"Value": {
			{Name: "Whitespace", Pattern: `[ \t\r]+`},
			{Name: "Comment", Pattern: `#[^\n]*`},
			{Name: "SingleQuoted", Pattern: `'[^']*'`},
			{Name: "DoubleQuoted", Pattern: `"(\\.|[^"\\])*"`},
			{Name: "Bare", Pattern: `[^\s#'"]([^\s]|[ \t]+[^\s#])*`},
			{Name: "EOL", Pattern: `\n`, Action: lexer.Pop()},
		},
	})

	parser = participle.MustBuild[file](
		participle.Lexer(dotenvLexer),
		participle.Elide("Comment", "Whitespace"),
	)
)

// Parse reads .env formatted variables from r, in file order.
func Parse(r io.Reader) ([]Variable, error) {
	f, err := parser.Parse("", r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse dotenv")
	}

	vars := make([]Variable, 0, len(f.Entries))
	for _, e := range f.Entries {
		vars = append(vars, Variable{Key: e.Key, Value: e.Value.String()})
	}

	return vars, nil
}

// ParseFile reads the .env file at path.
func ParseFile(path string) ([]Variable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	vars, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid dotenv file: %s", path)
	}

	return vars, nil
}

// Load sets every variable from the file at path that isn't already set in the
// environment. Returns an error wrapping os.ErrNotExist when the file is
// missing.
func Load(path string) error {
	vars, err := ParseFile(path)
	if err != nil {
		return err
	}

	for _, v := range vars {
		if _, ok := os.LookupEnv(v.Key); ok {
			continue
		}

		if err := os.Setenv(v.Key, v.Value); err != nil {
			return errors.Wrapf(err, "failed to set %s", v.Key)
		}
	}

	return nil
}

func (v *value) String() string {
	switch {
	case v == nil:
		return ""
	case v.Single != nil:
		return strings.Trim(*v.Single, "'")
	case v.Double != nil:
		if s, err := strconv.Unquote(*v.Double); err == nil {
			return s
		}
		return strings.Trim(*v.Double, `"`)
	case v.Bare != nil:
		return *v.Bare
	default:
		return ""
	}
}
