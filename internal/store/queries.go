package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// nodeCols is the column list for node queries. rowid preserves emission
// order.
var nodeCols = []string{"rowid", "module", "revision", "path", "statement", "argument", "description", "properties"}

func scanNode(scanner interface{ Scan(...any) error }) (*Node, error) {
	n := &Node{}
	var module, revision, path, statement, argument, description, properties sql.NullString
	if err := scanner.Scan(&n.ID, &module, &revision, &path, &statement, &argument, &description, &properties); err != nil {
		return nil, err
	}
	n.Module, n.Revision, n.Path = module.String, revision.String, path.String
	n.Statement, n.Argument = statement.String, argument.String
	n.Description, n.Properties = description.String, properties.String
	return n, nil
}

func (s *Store) queryNodes(b sq.SelectBuilder) ([]*Node, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build node query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) count(b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Nodes returns the nodes matching filter in emission order, skipping offset
// rows and returning at most limit (0 means no limit), together with the
// total number of matches.
func (s *Store) Nodes(filter NodeFilter, offset, limit int) ([]*Node, int, error) {
	countQ := sb.Select("COUNT(*)").From("yindex")
	q := sb.Select(nodeCols...).From("yindex").OrderBy("rowid")
	if cond := filter.where(); len(cond) > 0 {
		countQ = countQ.Where(cond)
		q = q.Where(cond)
	}
	total, err := s.count(countQ)
	if err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		q = q.Limit(uint64(limit)).Offset(uint64(offset))
	}
	nodes, err := s.queryNodes(q)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// NodeByPath returns the node at an exact schema path. With an empty revision
// the newest revision wins. Returns nil when no node matches.
func (s *Store) NodeByPath(path, revision string) (*Node, error) {
	q := sb.Select(nodeCols...).From("yindex").Where(sq.Eq{"path": path})
	if revision != "" {
		q = q.Where(sq.Eq{"revision": revision})
	}
	nodes, err := s.queryNodes(q.OrderBy("revision DESC", "rowid").Limit(1))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// Search finds nodes whose argument or description contains term,
// case-insensitively for ASCII. It pages like Nodes.
func (s *Store) Search(term string, offset, limit int) ([]*Node, int, error) {
	pattern := likePattern(term)
	cond := sq.Or{
		sq.Expr(`argument LIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`description LIKE ? ESCAPE '\'`, pattern),
	}
	total, err := s.count(sb.Select("COUNT(*)").From("yindex").Where(cond))
	if err != nil {
		return nil, 0, err
	}
	q := sb.Select(nodeCols...).From("yindex").Where(cond).OrderBy("module", "revision", "rowid")
	if limit > 0 {
		q = q.Limit(uint64(limit)).Offset(uint64(offset))
	}
	nodes, err := s.queryNodes(q)
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// Modules lists every module revision that has node rows or a modules table
// row, ordered by name and revision.
func (s *Store) Modules() ([]*ModuleInfo, error) {
	query := `
		WITH known AS (
		  SELECT module, revision FROM yindex
		  UNION
		  SELECT module, revision FROM modules
		)
		SELECT k.module, k.revision,
		  COALESCE(m.yang_version, ''), COALESCE(m.belongs_to, ''), COALESCE(m.namespace, ''),
		  COALESCE(m.prefix, ''), COALESCE(m.organization, ''),
		  (SELECT COUNT(*) FROM yindex y WHERE y.module = k.module AND y.revision = k.revision)
		FROM known k
		LEFT JOIN modules m ON m.module = k.module AND m.revision = k.revision
		GROUP BY k.module, k.revision
		ORDER BY k.module, k.revision`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}
	defer rows.Close()
	var out []*ModuleInfo
	for rows.Next() {
		m := &ModuleInfo{}
		if err := rows.Scan(&m.Module, &m.Revision, &m.YangVersion, &m.BelongsTo, &m.Namespace,
			&m.Prefix, &m.Organization, &m.NodeCount); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Module returns one module revision; an empty revision selects the newest.
// Returns nil when the module is unknown.
func (s *Store) Module(name, revision string) (*ModuleInfo, error) {
	mods, err := s.Modules()
	if err != nil {
		return nil, err
	}
	var found *ModuleInfo
	for _, m := range mods {
		if m.Module != name {
			continue
		}
		if revision != "" {
			if m.Revision == revision {
				return m, nil
			}
			continue
		}
		// Modules are ordered by revision ascending.
		found = m
	}
	return found, nil
}

// Summary counts modules, nodes, tracked files and nodes per statement.
func (s *Store) Summary() (*Summary, error) {
	sum := &Summary{Statements: make(map[string]int)}

	var err error
	if sum.Modules, err = s.count(sb.Select("COUNT(*)").FromSelect(
		sb.Select("module", "revision").From("yindex").GroupBy("module", "revision"), "m")); err != nil {
		return nil, err
	}
	if sum.Nodes, err = s.count(sb.Select("COUNT(*)").From("yindex")); err != nil {
		return nil, err
	}
	if sum.Files, err = s.count(sb.Select("COUNT(*)").From("files")); err != nil {
		return nil, err
	}

	query, args, err := sb.Select("statement", "COUNT(*)").From("yindex").GroupBy("statement").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement counts: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("statement counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var stmt sql.NullString
		var n int
		if err := rows.Scan(&stmt, &n); err != nil {
			return nil, fmt.Errorf("scan statement count: %w", err)
		}
		sum.Statements[stmt.String] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sum, nil
}
