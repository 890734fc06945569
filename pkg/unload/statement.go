package unload

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects how the unload statement is rendered for a warehouse.
type Dialect string

const (
	// DialectNetezza renders a CREATE EXTERNAL TABLE unload. This is the
	// generic form for warehouses reached through any database/sql driver
	// that supports external tables over a local path.
	DialectNetezza Dialect = "netezza"

	// DialectPostgres renders a COPY ... TO unload.
	DialectPostgres Dialect = "postgres"

	// DialectMySQL renders a SELECT ... INTO OUTFILE unload.
	DialectMySQL Dialect = "mysql"
)

// ErrBoundPredicate is returned when a predicate carries placeholder
// arguments. Unload statements embed the SELECT verbatim inside DDL-like
// text, so predicates must be rendered as literals (sq.Expr with inlined
// values, or a plain SQL string).
var ErrBoundPredicate = errors.New("unload predicates must not carry placeholder arguments")

// Query describes what to unload. Predicate is optional; when Columns is
// empty a literal constant is selected, which is how row counts are streamed
// without shipping any column data.
type Query struct {
	Table     string
	Columns   []string
	Predicate sq.Sqlizer
}

func (q Query) selectSQL() (string, error) {
	cols := q.Columns
	if len(cols) == 0 {
		cols = []string{"1"}
	}

	b := sq.Select(cols...).From(q.Table)
	if q.Predicate != nil {
		b = b.Where(q.Predicate)
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return "", fmt.Errorf("build unload select: %w", err)
	}
	if len(args) > 0 {
		return "", ErrBoundPredicate
	}
	return sqlStr, nil
}

// buildStatement renders the full unload statement targeting the named pipe
// at pipePath. The transport options are fixed at this layer: callers do not
// negotiate them per statement.
func buildStatement(d Dialect, q Query, pipePath string, o *Options) (string, error) {
	sel, err := q.selectSQL()
	if err != nil {
		return "", err
	}

	switch d {
	case DialectNetezza:
		var b strings.Builder
		fmt.Fprintf(&b, "CREATE EXTERNAL TABLE '%s' USING (", pipePath)
		fmt.Fprintf(&b, "REMOTESOURCE '%s' ", o.SourceTag)
		fmt.Fprintf(&b, "DELIMITER '%s' ", quoteByte(o.Delimiter))
		fmt.Fprintf(&b, "ESCAPECHAR '%s' ", quoteByte(o.Escape))
		fmt.Fprintf(&b, "NULLVALUE '%s' ", o.NullToken)
		fmt.Fprintf(&b, "BOOLSTYLE '%s' ", o.BoolStyle)
		b.WriteString("CRINSTRING TRUE")
		fmt.Fprintf(&b, ") AS %s", sel)
		return b.String(), nil

	case DialectPostgres:
		// Postgres text format always escapes with backslash.
		if o.Escape != '\\' {
			return "", fmt.Errorf("postgres unloads require the backslash escape character, got %q", o.Escape)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "COPY (%s) TO '%s' WITH (FORMAT text, DELIMITER E'\\x%02x'", sel, pipePath, o.Delimiter)
		if o.NullToken != "" {
			fmt.Fprintf(&b, ", NULL '%s'", o.NullToken)
		}
		b.WriteString(")")
		return b.String(), nil

	case DialectMySQL:
		// MySQL writes \N for NULL regardless of the configured token.
		var b strings.Builder
		b.WriteString(sel)
		fmt.Fprintf(&b, " INTO OUTFILE '%s'", pipePath)
		fmt.Fprintf(&b, " FIELDS TERMINATED BY x'%02x' ESCAPED BY '\\\\'", o.Delimiter)
		b.WriteString(" LINES TERMINATED BY '\\n'")
		return b.String(), nil

	default:
		return "", fmt.Errorf("unknown unload dialect %q", d)
	}
}

// quoteByte renders a byte for inclusion inside a single-quoted option
// value. Control bytes are rendered as octal escapes.
func quoteByte(c byte) string {
	switch {
	case c == '\'':
		return "''"
	case c == '\\':
		return "\\\\"
	case c < 0x20 || c > 0x7e:
		return fmt.Sprintf("\\%03o", c)
	default:
		return string(c)
	}
}
