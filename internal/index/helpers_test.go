package index

import (
	"github.com/jward/yindex/internal/schema"
)

// st builds a statement. arg "" means no argument; set Arg to schema.Str("")
// for an explicit empty one.
func st(kw, arg string, subs ...*schema.Statement) *schema.Statement {
	s := &schema.Statement{Keyword: schema.ParseKeyword(kw), Substatements: subs}
	if arg != "" {
		s.Arg = schema.Str(arg)
	}
	for _, sub := range subs {
		sub.Parent = s
	}
	return s
}

// newTestModule builds a module or submodule from its top-level statements
// and links it the way the loader does: every statement gets its module,
// definitions are collected and data nodes get resolved children.
func newTestModule(kw, name string, subs ...*schema.Statement) *schema.Module {
	m := schema.NewModule(st(kw, name, subs...), name+".yang")
	m.Stmt.Walk(func(s *schema.Statement) { s.Module = m })
	for _, sub := range subs {
		switch {
		case sub.Keyword.Is("typedef"):
			m.Typedefs = append(m.Typedefs, sub)
		case sub.Keyword.Is("feature"):
			m.Features = append(m.Features, sub)
		case sub.Keyword.Is("identity"):
			m.Identities = append(m.Identities, sub)
		case sub.Keyword.Is("grouping"):
			m.Groupings = append(m.Groupings, sub)
		case sub.Keyword.Is("extension"):
			m.Extensions = append(m.Extensions, sub)
		case schema.IsDataDefinition(sub.Keyword):
			linkChildren(sub)
			m.Children = append(m.Children, sub)
		}
	}
	return m
}

func linkChildren(s *schema.Statement) {
	if !schema.HasSchemaChildren(s.Keyword) {
		return
	}
	s.Children = []*schema.Statement{}
	for _, sub := range s.Substatements {
		if schema.IsDataDefinition(sub.Keyword) {
			linkChildren(sub)
			s.Children = append(s.Children, sub)
		}
	}
}

// augment links an augment statement of m to target.
func augment(m *schema.Module, aug *schema.Statement, target *schema.Statement) {
	aug.Target = target
	aug.Children = []*schema.Statement{}
	for _, sub := range aug.Substatements {
		if schema.IsDataDefinition(sub.Keyword) {
			linkChildren(sub)
			sub.Parent = target
			aug.Children = append(aug.Children, sub)
			target.Children = append(target.Children, sub)
		}
	}
}

type fakeRegistry struct {
	modules  map[string]*schema.Module
	onDisk   map[string]*schema.Module
	searches []string
}

func newFakeRegistry(loaded ...*schema.Module) *fakeRegistry {
	r := &fakeRegistry{modules: map[string]*schema.Module{}, onDisk: map[string]*schema.Module{}}
	for _, m := range loaded {
		r.modules[m.Name] = m
	}
	return r
}

func (r *fakeRegistry) Module(name, revision string) *schema.Module {
	m := r.modules[name]
	if m == nil || (revision != "" && m.Revision() != revision) {
		return nil
	}
	return m
}

func (r *fakeRegistry) Search(pos schema.Position, name, revision string) *schema.Module {
	r.searches = append(r.searches, name+"@"+revision)
	if m := r.modules[name]; m != nil {
		return m
	}
	if m := r.onDisk[name]; m != nil {
		r.modules[name] = m
		return m
	}
	return nil
}
