package index

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jward/yindex/internal/schema"
)

// CreateIndexTable and CreateModulesTable are the schema preamble.
const (
	CreateIndexTable   = "create table yindex(module, revision, path, statement, argument, description, properties);"
	CreateModulesTable = "create table modules(module, revision, yang_version, belongs_to, namespace, prefix, organization, maturity, compile_status, document, file_path);"
)

// IndexRow is one indexed schema node. Text fields are already escaped for a
// SQL string literal; Properties values are additionally text-escaped.
type IndexRow struct {
	Module      string
	Revision    string
	Path        string
	Statement   string
	Argument    string
	Description string
	Properties  string
}

// SQL renders the insert statement for the row.
func (r *IndexRow) SQL() string {
	return fmt.Sprintf("insert into yindex values('%s', '%s', '%s', '%s', '%s', '%s', '%s');",
		r.Module, r.Revision, r.Path, r.Statement, r.Argument, r.Description, r.Properties)
}

// ModuleRow is the metadata of one processed module. Maturity, compile
// status, document and file path are filled in later by catalog tooling.
type ModuleRow struct {
	Module       string
	Revision     string
	YangVersion  string
	BelongsTo    string
	Namespace    string
	Prefix       string
	Organization string
}

// SQL renders the insert statement for the row.
func (r *ModuleRow) SQL() string {
	return fmt.Sprintf("insert into modules (module, revision, yang_version, belongs_to, namespace, prefix, organization) values('%s', '%s', '%s', '%s', '%s', '%s', '%s');",
		r.Module, r.Revision, r.YangVersion, r.BelongsTo, r.Namespace, r.Prefix, r.Organization)
}

// BuildIndexRow assembles the row for s. It reports false when s was written
// without an argument and therefore has no row. An explicit empty argument
// still gets one.
func BuildIndexRow(s *schema.Statement) (*IndexRow, bool, error) {
	if !s.HasArgument() {
		return nil, false, nil
	}

	var module, revision string
	if s.Module != nil {
		module = s.Module.Name
		revision = s.Module.Revision()
	}

	props, err := MarshalProperties(EncodeProperties(s))
	if err != nil {
		return nil, false, fmt.Errorf("%s at %s: %w", s, s.Pos, err)
	}

	return &IndexRow{
		Module:      SQLEscape(module),
		Revision:    SQLEscape(revision),
		Path:        SQLEscape(schema.Path(s)),
		Statement:   FlattenKeyword(s.Keyword),
		Argument:    SQLEscape(s.Argument()),
		Description: SQLEscape(s.ArgOf("description")),
		Properties:  props,
	}, true, nil
}

var urnOrganization = regexp.MustCompile(`urn:([^:]+):`)

// BuildModuleRow resolves the metadata row for m. registry is used to find
// the owning module of a submodule and may be nil.
func BuildModuleRow(m *schema.Module, registry schema.Registry) *ModuleRow {
	row := &ModuleRow{
		Module:       SQLEscape(m.Name),
		Revision:     SQLEscape(m.Stmt.ArgOf("revision")),
		YangVersion:  SQLEscape(m.Stmt.ArgOf("yang-version")),
		BelongsTo:    SQLEscape(m.Stmt.ArgOf("belongs-to")),
		Namespace:    SQLEscape(m.Stmt.ArgOf("namespace")),
		Prefix:       SQLEscape(m.Stmt.ArgOf("prefix")),
		Organization: SQLEscape(m.Stmt.ArgOf("organization")),
	}

	if row.BelongsTo != "" {
		bt := m.SearchOne("belongs-to")
		if pf := bt.SearchOne("prefix"); pf != nil {
			row.Prefix = SQLEscape(pf.Argument())
		}
		if parent := findModule(registry, m.Pos(), bt.Argument(), m.Revision()); parent != nil {
			if ns := parent.SearchOne("namespace"); ns != nil {
				row.Namespace = SQLEscape(ns.Argument())
			}
		}
	}

	// The namespace-derived organization replaces any organization
	// statement.
	if match := urnOrganization.FindStringSubmatch(row.Namespace); match != nil {
		row.Organization = match[1]
	}

	if row.YangVersion == "" || row.YangVersion == "1" {
		row.YangVersion = "1.0"
	}
	return row
}

// findModule looks a module up directly and falls back to a search from pos.
func findModule(registry schema.Registry, pos schema.Position, name, revision string) *schema.Module {
	if registry == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	if m := registry.Module(name, revision); m != nil {
		return m
	}
	return registry.Search(pos, name, revision)
}
