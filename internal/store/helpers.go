package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// unescapeSQL reverses quote doubling on a value rendered for a SQL literal.
func unescapeSQL(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern returns a LIKE pattern matching values that contain term
// literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// prefixPattern returns a LIKE pattern matching values starting with prefix.
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// where converts a NodeFilter into query conditions.
func (f NodeFilter) where() sq.And {
	cond := sq.And{}
	if f.Module != "" {
		cond = append(cond, sq.Eq{"module": f.Module})
	}
	if f.Revision != "" {
		cond = append(cond, sq.Eq{"revision": f.Revision})
	}
	if len(f.Statements) > 0 {
		cond = append(cond, sq.Eq{"statement": f.Statements})
	}
	if f.Argument != "" {
		cond = append(cond, sq.Eq{"argument": f.Argument})
	}
	if f.PathPrefix != "" {
		prefix := strings.TrimSuffix(f.PathPrefix, "/")
		cond = append(cond, sq.Or{
			sq.Eq{"path": prefix},
			sq.Expr(`path LIKE ? ESCAPE '\'`, prefixPattern(prefix+"/")),
		})
	}
	return cond
}
