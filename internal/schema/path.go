package schema

import (
	"slices"
	"strings"
)

var dataDefinitionKeywords = map[string]bool{
	"container":    true,
	"list":         true,
	"leaf":         true,
	"leaf-list":    true,
	"choice":       true,
	"case":         true,
	"anydata":      true,
	"anyxml":       true,
	"uses":         true,
	"rpc":          true,
	"action":       true,
	"notification": true,
	"input":        true,
	"output":       true,
}

// IsDataDefinition reports whether k is one of the data-definition keywords.
// Extension keywords never are.
func IsDataDefinition(k Keyword) bool {
	return !k.IsExtension() && dataDefinitionKeywords[k.Name]
}

// DataDefinitionKeywords returns the data-definition keywords in sorted order.
func DataDefinitionKeywords() []string {
	out := make([]string, 0, len(dataDefinitionKeywords))
	for k := range dataDefinitionKeywords {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// HasSchemaChildren reports whether statements with keyword k own a resolved
// children list.
func HasSchemaChildren(k Keyword) bool {
	if k.IsExtension() {
		return false
	}
	switch k.Name {
	case "container", "list", "choice", "case", "rpc", "action",
		"notification", "input", "output", "augment":
		return true
	}
	return false
}

func isModuleStatement(s *Statement) bool {
	return s.Keyword.Is("module") || s.Keyword.Is("submodule")
}

// Path returns the absolute schema path of s with every segment qualified by
// the prefix of the module defining that node, e.g. /if:interfaces/if:interface.
// case, input and output levels are omitted.
func Path(s *Statement) string {
	var segs []string
	for n := s; n != nil && !isModuleStatement(n); n = n.Parent {
		if n.Keyword.Is("case") || n.Keyword.Is("input") || n.Keyword.Is("output") {
			continue
		}
		segs = append(segs, qualifiedName(n))
	}
	slices.Reverse(segs)
	return "/" + strings.Join(segs, "/")
}

func qualifiedName(n *Statement) string {
	name := n.Argument()
	if n.Module == nil {
		return name
	}
	prefix := n.Module.Prefix
	if prefix == "" {
		prefix = n.Module.Name
	}
	return prefix + ":" + name
}
