package yang

import (
	"strconv"
	"strings"

	goyang "github.com/openconfig/goyang/pkg/yang"

	"github.com/jward/yindex/internal/schema"
)

// SyntaxError reports YANG source that could not be parsed.
type SyntaxError struct {
	File string
	Err  error
}

func (e *SyntaxError) Error() string {
	msg := e.Err.Error()
	if e.File == "" || strings.Contains(msg, e.File) {
		return msg
	}
	return e.File + ": " + msg
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse parses YANG source text into its top-level statements. file is
// recorded in statement positions.
func Parse(src []byte, file string) ([]*schema.Statement, error) {
	stmts, err := goyang.Parse(string(src), file)
	if err != nil {
		return nil, &SyntaxError{File: file, Err: err}
	}
	out := make([]*schema.Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, convert(s, nil, file))
	}
	return out, nil
}

// convert copies a generic goyang statement into the schema model.
// prefix:name keywords become extension keywords.
func convert(s *goyang.Statement, parent *schema.Statement, file string) *schema.Statement {
	n := &schema.Statement{
		Keyword: schema.ParseKeyword(s.Keyword),
		Parent:  parent,
		Pos:     position(s.Location(), file),
	}
	if s.HasArgument {
		arg := s.Argument
		n.Arg = &arg
	}
	for _, sub := range s.SubStatements() {
		n.Substatements = append(n.Substatements, convert(sub, n, file))
	}
	return n
}

// position reads the line and column from a goyang location, which is
// "file:line:col", or "line line:col" when the file is unnamed.
func position(loc, file string) schema.Position {
	pos := schema.Position{File: file}
	rest, col, ok := cutNumber(loc)
	if !ok {
		return pos
	}
	if _, line, ok := cutNumber(rest); ok {
		pos.Line, pos.Col = line, col
	}
	return pos
}

// cutNumber splits the trailing ":n" or " n" off s.
func cutNumber(s string) (string, int, bool) {
	i := strings.LastIndexAny(s, ": ")
	if i < 0 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}
