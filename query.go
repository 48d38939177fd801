package yindex

import (
	"fmt"

	"github.com/jward/yindex/internal/index"
	"github.com/jward/yindex/internal/store"
)

// QueryBuilder provides read access to an indexed database.
type QueryBuilder struct {
	store *store.Store
}

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// Property is one decoded entry of a node's properties column.
type Property struct {
	Keyword     string
	Value       string
	HasChildren bool
	Children    []Property
}

// Modules lists every indexed module revision ordered by name and revision.
func (q *QueryBuilder) Modules() ([]*ModuleInfo, error) {
	mods, err := q.store.Modules()
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}
	return mods, nil
}

// Module returns one module revision. An empty revision selects the newest.
func (q *QueryBuilder) Module(name, revision string) (*ModuleInfo, error) {
	m, err := q.store.Module(name, revision)
	if err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}
	if m == nil {
		if revision != "" {
			name += "@" + revision
		}
		return nil, fmt.Errorf("module %s: %w", name, ErrNotFound)
	}
	return m, nil
}

// Nodes returns one page of the nodes matching filter in emission order.
func (q *QueryBuilder) Nodes(filter NodeFilter, page Pagination) (*PagedResult[*Node], error) {
	page = page.normalize()
	nodes, total, err := q.store.Nodes(filter, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	return &PagedResult[*Node]{Items: nodes, TotalCount: total}, nil
}

// NodeAt returns the node at a schema path such as "/sys:system/sys:hostname".
// An empty revision selects the newest module revision holding the path.
func (q *QueryBuilder) NodeAt(path, revision string) (*Node, error) {
	n, err := q.store.NodeByPath(path, revision)
	if err != nil {
		return nil, fmt.Errorf("node at: %w", err)
	}
	if n == nil {
		return nil, fmt.Errorf("node %s: %w", path, ErrNotFound)
	}
	return n, nil
}

// Search returns one page of the nodes whose argument or description
// contains term, ignoring ASCII case.
func (q *QueryBuilder) Search(term string, page Pagination) (*PagedResult[*Node], error) {
	page = page.normalize()
	nodes, total, err := q.store.Search(term, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &PagedResult[*Node]{Items: nodes, TotalCount: total}, nil
}

// Properties decodes the properties column of n with values unescaped.
func (q *QueryBuilder) Properties(n *Node) ([]Property, error) {
	values, err := index.UnmarshalProperties(n.Properties)
	if err != nil {
		return nil, fmt.Errorf("properties of %s: %w", n.Path, err)
	}
	return decodeProperties(values), nil
}

func decodeProperties(values []index.EncodedValue) []Property {
	if values == nil {
		return nil
	}
	props := make([]Property, len(values))
	for i, v := range values {
		props[i] = Property{
			Keyword:     v.Keyword,
			Value:       index.StoredUnescape(v.Value),
			HasChildren: v.HasChildren,
			Children:    decodeProperties(v.Children),
		}
	}
	return props
}

// Summary counts the contents of the database.
func (q *QueryBuilder) Summary() (*Summary, error) {
	sum, err := q.store.Summary()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return sum, nil
}
