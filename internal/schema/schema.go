// Package schema is the in-memory YANG statement model consumed by the
// indexer. Trees are built once by a loader and treated as read-only
// afterwards.
package schema

import (
	"fmt"
	"strings"
)

// Keyword is a statement keyword. Core keywords carry only a Name; extension
// keywords also carry the prefix of the module defining the extension.
type Keyword struct {
	Prefix string
	Name   string
}

// Simple returns a core keyword.
func Simple(name string) Keyword {
	return Keyword{Name: name}
}

// Extension returns an extension keyword written as prefix:name.
func Extension(prefix, name string) Keyword {
	return Keyword{Prefix: prefix, Name: name}
}

// IsExtension reports whether k is a prefixed extension keyword.
func (k Keyword) IsExtension() bool {
	return k.Prefix != ""
}

// Is reports whether k is the core keyword name.
func (k Keyword) Is(name string) bool {
	return k.Prefix == "" && k.Name == name
}

// Flatten returns the single-token form of k: the name for core keywords and
// prefix:name for extensions.
func (k Keyword) Flatten() string {
	if k.Prefix == "" {
		return k.Name
	}
	return k.Prefix + ":" + k.Name
}

func (k Keyword) String() string {
	return k.Flatten()
}

// ParseKeyword splits a raw keyword token into its core or extension form.
func ParseKeyword(raw string) Keyword {
	if prefix, name, ok := strings.Cut(raw, ":"); ok {
		return Extension(prefix, name)
	}
	return Simple(raw)
}

// Position is a location in a source file. Line and Col are 1-based.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Statement is one node of a parsed YANG tree.
type Statement struct {
	Keyword Keyword
	// Arg is nil when the statement was written without an argument.
	Arg           *string
	Substatements []*Statement

	// Module is the module or submodule that defines the statement.
	Module *Module
	// Parent is the schema parent used for path computation. For augment
	// children it is the augment target rather than the augment itself.
	Parent *Statement
	// Children holds the resolved schema children. It is nil for statements
	// that are not data-definition nodes.
	Children []*Statement
	// Target is the resolved target node of an augment statement.
	Target *Statement

	Pos Position
}

// Argument returns the argument or "" when absent.
func (s *Statement) Argument() string {
	if s.Arg == nil {
		return ""
	}
	return *s.Arg
}

// HasArgument reports whether the statement was written with an argument.
func (s *Statement) HasArgument() bool {
	return s.Arg != nil
}

// SearchOne returns the first direct substatement with the core keyword, or
// nil.
func (s *Statement) SearchOne(keyword string) *Statement {
	for _, sub := range s.Substatements {
		if sub.Keyword.Is(keyword) {
			return sub
		}
	}
	return nil
}

// Search returns every direct substatement with the core keyword in source
// order.
func (s *Statement) Search(keyword string) []*Statement {
	var out []*Statement
	for _, sub := range s.Substatements {
		if sub.Keyword.Is(keyword) {
			out = append(out, sub)
		}
	}
	return out
}

// ArgOf returns the argument of the first substatement with the keyword, or
// "" when there is none.
func (s *Statement) ArgOf(keyword string) string {
	if sub := s.SearchOne(keyword); sub != nil {
		return sub.Argument()
	}
	return ""
}

// Walk calls fn for s and every lexical descendant, depth-first.
func (s *Statement) Walk(fn func(*Statement)) {
	fn(s)
	for _, sub := range s.Substatements {
		sub.Walk(fn)
	}
}

// String returns a short description such as `container "interfaces"`.
func (s *Statement) String() string {
	if s.Arg == nil {
		return s.Keyword.Flatten()
	}
	return fmt.Sprintf("%s %q", s.Keyword.Flatten(), *s.Arg)
}

// Str returns a pointer to v. Loaders and tests use it to build arguments.
func Str(v string) *string {
	return &v
}
