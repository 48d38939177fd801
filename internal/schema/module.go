package schema

// Import is one import statement of a module, keyed by prefix in
// Module.Imports.
type Import struct {
	Module   string
	Revision string
}

// Module is a parsed module or submodule together with the collections the
// resolver derives from it.
type Module struct {
	// Stmt is the top-level module or submodule statement.
	Stmt *Statement
	Name string
	// Prefix is the module's own prefix, or the belongs-to prefix for
	// submodules.
	Prefix  string
	Imports map[string]Import
	// File is the source path the module was loaded from, if any.
	File string

	Typedefs   []*Statement
	Features   []*Statement
	Identities []*Statement
	Groupings  []*Statement
	Extensions []*Statement

	// Children are the module's own top-level data nodes with uses expanded.
	// Nodes of included submodules stay with the submodule.
	Children []*Statement
}

// NewModule wraps a top-level module or submodule statement. Collections are
// filled in by the resolver.
func NewModule(stmt *Statement, file string) *Module {
	m := &Module{
		Stmt:    stmt,
		Name:    stmt.Argument(),
		File:    file,
		Imports: make(map[string]Import),
	}
	if m.IsSubmodule() {
		if bt := stmt.SearchOne("belongs-to"); bt != nil {
			m.Prefix = bt.ArgOf("prefix")
		}
	} else {
		m.Prefix = stmt.ArgOf("prefix")
	}
	for _, imp := range stmt.Search("import") {
		p := imp.ArgOf("prefix")
		if p == "" {
			continue
		}
		m.Imports[p] = Import{Module: imp.Argument(), Revision: imp.ArgOf("revision-date")}
	}
	return m
}

// IsSubmodule reports whether the module is a submodule.
func (m *Module) IsSubmodule() bool {
	return m.Stmt.Keyword.Is("submodule")
}

// Revision returns the first revision argument or "".
func (m *Module) Revision() string {
	return m.Stmt.ArgOf("revision")
}

// BelongsTo returns the owning module name of a submodule, or "".
func (m *Module) BelongsTo() string {
	return m.Stmt.ArgOf("belongs-to")
}

// Key identifies the module by name and revision.
func (m *Module) Key() string {
	if rev := m.Revision(); rev != "" {
		return m.Name + "@" + rev
	}
	return m.Name
}

// SearchOne returns the first top-level substatement with the keyword.
func (m *Module) SearchOne(keyword string) *Statement {
	return m.Stmt.SearchOne(keyword)
}

// Search returns every top-level substatement with the keyword.
func (m *Module) Search(keyword string) []*Statement {
	return m.Stmt.Search(keyword)
}

// Pos returns the position of the module statement.
func (m *Module) Pos() Position {
	return m.Stmt.Pos
}

// Registry looks up modules by name. Implementations return fully resolved
// modules.
type Registry interface {
	// Module returns the module with the exact name and revision. An empty
	// revision selects the latest available revision.
	Module(name, revision string) *Module
	// Search looks for a module that is not yet known, starting from the
	// location of the statement that references it. It returns nil when
	// nothing is found.
	Search(pos Position, name, revision string) *Module
}
