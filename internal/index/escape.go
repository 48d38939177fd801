package index

import "strings"

var sqlEscaper = strings.NewReplacer("'", "''")

// The replacer makes a single pass, so escapes introduced for one character
// are never re-escaped by another. The result equals applying backslash,
// quote, newline, tab and double quote escaping one after another in that
// order.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `''`,
	"\n", `\n`,
	"\t", `\t`,
	`"`, `\"`,
)

// SQLEscape doubles single quotes so s can sit inside a SQL string literal.
func SQLEscape(s string) string {
	return sqlEscaper.Replace(s)
}

// TextEscape escapes s for embedding inside the properties encoding, which is
// itself stored in a SQL string literal.
func TextEscape(s string) string {
	return textEscaper.Replace(s)
}

// TextUnescape reverses TextEscape. Unknown backslash sequences are kept as
// written.
func TextUnescape(s string) string {
	return unescape(s, true)
}

// StoredUnescape reverses TextEscape for a value read back from the
// database. Loading the SQL literal already collapsed doubled quotes, so only
// the backslash sequences are undone.
func StoredUnescape(s string) string {
	return unescape(s, false)
}

func unescape(s string, quotes bool) string {
	if !strings.ContainsAny(s, `\'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
		case quotes && c == '\'' && i+1 < len(s) && s[i+1] == '\'':
			i++
			b.WriteByte('\'')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
