package yang

import (
	"slices"
	"strings"

	"github.com/jward/yindex/internal/logging"
	"github.com/jward/yindex/internal/schema"
)

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// maxUsesDepth bounds nested grouping expansion so that a grouping which
// uses itself terminates.
const maxUsesDepth = 32

// resolve links a module and the rest of its family. Imported modules are
// resolved first so that their groupings and nodes are available to uses
// and augment statements. Import cycles are cut at the module already in
// progress.
func (r *Registry) resolve(m *schema.Module) {
	if r.state[m] != unresolved {
		return
	}
	family := r.family(m)
	var todo []*schema.Module
	for _, fm := range family {
		r.families[fm] = family
		if r.state[fm] == unresolved {
			r.state[fm] = resolving
			todo = append(todo, fm)
		}
	}

	for _, fm := range todo {
		r.collect(fm)
	}
	for _, fm := range todo {
		for _, imp := range fm.Search("import") {
			if dep := r.find(imp.Pos, imp.Argument(), imp.ArgOf("revision-date")); dep != nil {
				r.resolve(dep)
			}
		}
	}
	for _, fm := range todo {
		r.expandGroupings(fm)
		children, _ := r.expand(fm.Stmt.Substatements, fm.Stmt, fm, false, 0)
		fm.Children = children
	}
	for _, fm := range todo {
		r.resolveAugments(fm)
	}
	for _, fm := range todo {
		r.state[fm] = resolved
	}
}

// family returns the owning module of m followed by every submodule it
// includes, transitively. A submodule whose owner cannot be found forms a
// family with its own includes.
func (r *Registry) family(m *schema.Module) []*schema.Module {
	root := m
	if m.IsSubmodule() {
		if owner := r.find(m.Pos(), m.BelongsTo(), ""); owner != nil && !owner.IsSubmodule() {
			root = owner
		}
	}

	out := []*schema.Module{root}
	seen := map[*schema.Module]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, inc := range out[i].Search("include") {
			sub := r.find(inc.Pos, inc.Argument(), inc.ArgOf("revision-date"))
			if sub == nil || seen[sub] || !sub.IsSubmodule() {
				continue
			}
			seen[sub] = true
			out = append(out, sub)
		}
	}
	if !seen[m] {
		out = append(out, m)
	}
	return out
}

func (r *Registry) familyOf(m *schema.Module) []*schema.Module {
	if f, ok := r.families[m]; ok {
		return f
	}
	return r.family(m)
}

// collect assigns the defining module to every statement, records lexical
// parents for grouping scope lookup, and gathers top-level definitions.
func (r *Registry) collect(m *schema.Module) {
	var mark func(s, parent *schema.Statement)
	mark = func(s, parent *schema.Statement) {
		s.Module = m
		if parent != nil {
			r.lexParent[s] = parent
		}
		for _, sub := range s.Substatements {
			mark(sub, s)
		}
	}
	mark(m.Stmt, nil)

	for _, s := range m.Stmt.Substatements {
		switch {
		case s.Keyword.Is("typedef"):
			m.Typedefs = append(m.Typedefs, s)
		case s.Keyword.Is("feature"):
			m.Features = append(m.Features, s)
		case s.Keyword.Is("identity"):
			m.Identities = append(m.Identities, s)
		case s.Keyword.Is("grouping"):
			m.Groupings = append(m.Groupings, s)
		case s.Keyword.Is("extension"):
			m.Extensions = append(m.Extensions, s)
		}
	}
}

// expand instantiates the data-definition statements among subs as children
// of parent. uses statements are replaced by the contents of their grouping.
// When clone is set the nodes are copies, and the returned substatement list
// has each data node replaced by its copy.
func (r *Registry) expand(subs []*schema.Statement, parent *schema.Statement, mod *schema.Module, clone bool, depth int) (children, newSubs []*schema.Statement) {
	for _, sub := range subs {
		switch {
		case sub.Keyword.Is("uses"):
			children = append(children, r.uses(sub, parent, mod, depth)...)
			if clone {
				newSubs = append(newSubs, sub)
			}
		case schema.IsDataDefinition(sub.Keyword):
			n := r.instantiate(sub, parent, mod, clone, depth)
			children = append(children, n)
			if clone {
				newSubs = append(newSubs, n)
			}
		default:
			if clone {
				newSubs = append(newSubs, sub)
			}
		}
	}
	return children, newSubs
}

func (r *Registry) instantiate(s, parent *schema.Statement, mod *schema.Module, clone bool, depth int) *schema.Statement {
	n := s
	if clone {
		c := *s
		n = &c
	}
	n.Parent = parent
	n.Module = mod
	n.Children = nil
	if schema.HasSchemaChildren(n.Keyword) {
		children, subs := r.expand(s.Substatements, n, mod, clone, depth)
		if children == nil {
			children = []*schema.Statement{}
		}
		n.Children = children
		if clone {
			n.Substatements = subs
		}
	}
	return n
}

// expandGroupings instantiates the body of every grouping of m in place,
// with the grouping as parent, so that data nodes inside groupings carry
// their resolved children too.
func (r *Registry) expandGroupings(m *schema.Module) {
	m.Stmt.Walk(func(s *schema.Statement) {
		if s.Keyword.Is("grouping") {
			r.expand(s.Substatements, s, m, false, 0)
		}
	})
}

// uses instantiates a copy of the grouping u refers to under parent, then
// applies the refine and augment statements written under u.
func (r *Registry) uses(u, parent *schema.Statement, mod *schema.Module, depth int) []*schema.Statement {
	if depth >= maxUsesDepth {
		logging.Warn().Stringer("pos", u.Pos).Str("grouping", u.Argument()).Msg("grouping nesting too deep")
		return nil
	}
	g := r.grouping(u)
	if g == nil {
		logging.Warn().Stringer("pos", u.Pos).Str("grouping", u.Argument()).Msg("grouping not found")
		return nil
	}
	children, _ := r.expand(g.Substatements, parent, mod, true, depth+1)

	for _, sub := range u.Substatements {
		switch {
		case sub.Keyword.Is("refine"):
			target := descendant(children, sub.Argument())
			if target == nil {
				logging.Warn().Stringer("pos", sub.Pos).Str("target", sub.Argument()).Msg("refine target not found")
				continue
			}
			refine(target, sub)
		case sub.Keyword.Is("augment"):
			target := descendant(children, sub.Argument())
			if target == nil {
				logging.Warn().Stringer("pos", sub.Pos).Str("target", sub.Argument()).Msg("augment target not found")
				continue
			}
			added, _ := r.expand(sub.Substatements, target, mod, true, depth+1)
			target.Children = append(target.Children, added...)
		}
	}
	return children
}

// descendant walks a relative schema node identifier such as "c/x" down from
// nodes. Prefixes are ignored.
func descendant(nodes []*schema.Statement, path string) *schema.Statement {
	var node *schema.Statement
	for _, seg := range strings.Split(strings.Trim(strings.TrimSpace(path), "/"), "/") {
		seg = strings.TrimSpace(seg)
		if _, name, ok := strings.Cut(seg, ":"); ok {
			seg = name
		}
		node = matchChild(nodes, seg)
		if node == nil {
			return nil
		}
		nodes = node.Children
	}
	return node
}

// refine overrides the properties of an instantiated grouping node. Single
// valued properties replace the node's own; must, if-feature, extensions and
// leaf-list defaults are added.
func refine(target, ref *schema.Statement) {
	subs := slices.Clone(target.Substatements)
	for _, p := range ref.Substatements {
		i := -1
		if !refineAdds(target, p) {
			i = slices.IndexFunc(subs, func(s *schema.Statement) bool { return s.Keyword == p.Keyword })
		}
		if i >= 0 {
			subs[i] = p
		} else {
			subs = append(subs, p)
		}
	}
	target.Substatements = subs
}

func refineAdds(target, p *schema.Statement) bool {
	switch {
	case p.Keyword.IsExtension(), p.Keyword.Is("must"), p.Keyword.Is("if-feature"):
		return true
	case p.Keyword.Is("default"):
		return target.Keyword.Is("leaf-list")
	}
	return false
}

// grouping finds the grouping a uses statement refers to. Unprefixed names
// are looked up in the enclosing lexical scopes and then across the defining
// module's family; prefixed names are looked up in the imported module.
func (r *Registry) grouping(u *schema.Statement) *schema.Statement {
	def := u.Module
	if def == nil {
		return nil
	}
	name := u.Argument()
	prefix, local, qualified := strings.Cut(name, ":")
	if !qualified {
		local = name
	}

	if qualified && prefix != def.Prefix {
		imp, ok := def.Imports[prefix]
		if !ok {
			return nil
		}
		dep := r.find(u.Pos, imp.Module, imp.Revision)
		if dep == nil {
			return nil
		}
		return findGrouping(r.familyOf(dep), local)
	}

	for p := r.lexParent[u]; p != nil; p = r.lexParent[p] {
		for _, g := range p.Search("grouping") {
			if g.Argument() == local {
				return g
			}
		}
	}
	return findGrouping(r.familyOf(def), local)
}

func findGrouping(family []*schema.Module, name string) *schema.Statement {
	for _, m := range family {
		for _, g := range m.Groupings {
			if g.Argument() == name {
				return g
			}
		}
	}
	return nil
}

func (r *Registry) resolveAugments(m *schema.Module) {
	for _, aug := range m.Search("augment") {
		target := r.augmentTarget(aug, m)
		if target == nil {
			logging.Warn().Stringer("pos", aug.Pos).Str("target", aug.Argument()).Msg("augment target not found")
			continue
		}
		children, _ := r.expand(aug.Substatements, target, m, false, 0)
		if children == nil {
			children = []*schema.Statement{}
		}
		aug.Target = target
		aug.Children = children
		target.Children = append(target.Children, children...)
	}
}

// augmentTarget walks an absolute schema node identifier such as
// /if:interfaces/if:interface. The first prefix selects the module whose
// top-level nodes are searched; later segments match children by name.
func (r *Registry) augmentTarget(aug *schema.Statement, m *schema.Module) *schema.Statement {
	path := strings.TrimSpace(aug.Argument())
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	var (
		node       *schema.Statement
		candidates []*schema.Statement
	)
	for i, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		seg = strings.TrimSpace(seg)
		prefix, name, ok := strings.Cut(seg, ":")
		if !ok {
			prefix, name = "", seg
		}
		if i == 0 {
			family := r.targetFamily(aug, m, prefix)
			if family == nil {
				return nil
			}
			for _, fm := range family {
				candidates = append(candidates, fm.Children...)
			}
		}
		node = matchChild(candidates, name)
		if node == nil {
			return nil
		}
		candidates = node.Children
	}
	return node
}

func (r *Registry) targetFamily(aug *schema.Statement, m *schema.Module, prefix string) []*schema.Module {
	if prefix == "" || prefix == m.Prefix {
		return r.familyOf(m)
	}
	imp, ok := m.Imports[prefix]
	if !ok {
		return nil
	}
	dep := r.find(aug.Pos, imp.Module, imp.Revision)
	if dep == nil {
		return nil
	}
	return r.familyOf(dep)
}

// matchChild finds a child by name. input and output carry no argument and
// match by keyword.
func matchChild(children []*schema.Statement, name string) *schema.Statement {
	for _, c := range children {
		if c.Argument() == name || (!c.HasArgument() && c.Keyword.Is(name)) {
			return c
		}
	}
	return nil
}
