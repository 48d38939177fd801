package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyword_Flatten(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "container", Simple("container").Flatten())
	assert.Equal(t, "ext:custom", Extension("ext", "custom").Flatten())
	assert.Equal(t, "ext:custom", ParseKeyword("ext:custom").String())
	assert.True(t, ParseKeyword("ext:custom").IsExtension())
	assert.False(t, ParseKeyword("leaf").IsExtension())
}

func TestKeyword_IsIgnoresExtensions(t *testing.T) {
	t.Parallel()
	assert.True(t, Simple("leaf").Is("leaf"))
	assert.False(t, Extension("x", "leaf").Is("leaf"))
	assert.False(t, IsDataDefinition(Extension("x", "leaf")))
	assert.True(t, IsDataDefinition(Simple("uses")))
	assert.False(t, IsDataDefinition(Simple("augment")))
	assert.False(t, IsDataDefinition(Simple("typedef")))
}

func TestDataDefinitionKeywords(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{
		"action", "anydata", "anyxml", "case", "choice", "container", "input",
		"leaf", "leaf-list", "list", "notification", "output", "rpc", "uses",
	}, DataDefinitionKeywords())
}

func TestStatement_Search(t *testing.T) {
	t.Parallel()
	s := &Statement{
		Keyword: Simple("module"),
		Arg:     Str("m"),
		Substatements: []*Statement{
			{Keyword: Simple("revision"), Arg: Str("2024-01-01")},
			{Keyword: Simple("revision"), Arg: Str("2023-01-01")},
			{Keyword: Extension("revision", "x")},
		},
	}
	require.NotNil(t, s.SearchOne("revision"))
	assert.Equal(t, "2024-01-01", s.ArgOf("revision"))
	assert.Len(t, s.Search("revision"), 2)
	assert.Nil(t, s.SearchOne("namespace"))
	assert.Equal(t, "", s.ArgOf("namespace"))
}

func TestNewModule_SubmodulePrefix(t *testing.T) {
	t.Parallel()
	stmt := &Statement{
		Keyword: Simple("submodule"),
		Arg:     Str("foo-sub"),
		Substatements: []*Statement{
			{Keyword: Simple("belongs-to"), Arg: Str("foo"), Substatements: []*Statement{
				{Keyword: Simple("prefix"), Arg: Str("f")},
			}},
			{Keyword: Simple("import"), Arg: Str("ietf-inet-types"), Substatements: []*Statement{
				{Keyword: Simple("prefix"), Arg: Str("inet")},
				{Keyword: Simple("revision-date"), Arg: Str("2013-07-15")},
			}},
		},
	}
	m := NewModule(stmt, "foo-sub.yang")
	assert.True(t, m.IsSubmodule())
	assert.Equal(t, "f", m.Prefix)
	assert.Equal(t, "foo", m.BelongsTo())
	assert.Equal(t, "foo-sub", m.Key())
	assert.Equal(t, Import{Module: "ietf-inet-types", Revision: "2013-07-15"}, m.Imports["inet"])
}

func TestPath_SkipsCaseAndInput(t *testing.T) {
	t.Parallel()
	modStmt := &Statement{Keyword: Simple("module"), Arg: Str("foo")}
	foo := &Module{Stmt: modStmt, Name: "foo", Prefix: "f"}
	bar := &Module{Name: "bar", Prefix: "b"}

	rpc := &Statement{Keyword: Simple("rpc"), Arg: Str("reset"), Module: foo, Parent: modStmt}
	input := &Statement{Keyword: Simple("input"), Module: foo, Parent: rpc}
	choice := &Statement{Keyword: Simple("choice"), Arg: Str("how"), Module: foo, Parent: input}
	cs := &Statement{Keyword: Simple("case"), Arg: Str("now"), Module: foo, Parent: choice}
	leaf := &Statement{Keyword: Simple("leaf"), Arg: Str("delay"), Module: bar, Parent: cs}

	assert.Equal(t, "/f:reset", Path(rpc))
	assert.Equal(t, "/f:reset/f:how/b:delay", Path(leaf))
}

func TestPath_FallsBackToModuleName(t *testing.T) {
	t.Parallel()
	modStmt := &Statement{Keyword: Simple("module"), Arg: Str("foo")}
	foo := &Module{Stmt: modStmt, Name: "foo"}
	leaf := &Statement{Keyword: Simple("leaf"), Arg: Str("bar"), Module: foo, Parent: modStmt}
	assert.Equal(t, "/foo:bar", Path(leaf))
}
