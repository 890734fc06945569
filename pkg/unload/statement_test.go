package unload

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"
)

func TestBuildStatement(t *testing.T) {
	query := Query{
		Table:   "events",
		Columns: []string{"id", "name"},
	}

	tests := []struct {
		name     string
		dialect  Dialect
		query    Query
		opts     []Option
		expected string
		errIs    error
	}{
		{
			name:    "should_render_netezza_external_table",
			dialect: DialectNetezza,
			query:   query,
			expected: "CREATE EXTERNAL TABLE '/tmp/unload.pipe' USING (" +
				"REMOTESOURCE 'GOLANG' DELIMITER '\\001' ESCAPECHAR '\\\\' " +
				"NULLVALUE '' BOOLSTYLE '1_0' CRINSTRING TRUE) " +
				"AS SELECT id, name FROM events",
		},
		{
			name:    "should_render_netezza_with_predicate_and_null_token",
			dialect: DialectNetezza,
			query: Query{
				Table:     "events",
				Columns:   []string{"id"},
				Predicate: sq.Expr("id > 10"),
			},
			opts: []Option{WithNullToken("NULL"), WithSourceTag("ODBC")},
			expected: "CREATE EXTERNAL TABLE '/tmp/unload.pipe' USING (" +
				"REMOTESOURCE 'ODBC' DELIMITER '\\001' ESCAPECHAR '\\\\' " +
				"NULLVALUE 'NULL' BOOLSTYLE '1_0' CRINSTRING TRUE) " +
				"AS SELECT id FROM events WHERE id > 10",
		},
		{
			name:     "should_select_literal_constant_when_no_columns",
			dialect:  DialectNetezza,
			query:    Query{Table: "events"},
			expected: "CREATE EXTERNAL TABLE '/tmp/unload.pipe' USING (" +
				"REMOTESOURCE 'GOLANG' DELIMITER '\\001' ESCAPECHAR '\\\\' " +
				"NULLVALUE '' BOOLSTYLE '1_0' CRINSTRING TRUE) " +
				"AS SELECT 1 FROM events",
		},
		{
			name:     "should_render_postgres_copy",
			dialect:  DialectPostgres,
			query:    query,
			opts:     []Option{WithNullToken("\\N")},
			expected: "COPY (SELECT id, name FROM events) TO '/tmp/unload.pipe' " +
				"WITH (FORMAT text, DELIMITER E'\\x01', NULL '\\N')",
		},
		{
			name:     "should_render_mysql_outfile",
			dialect:  DialectMySQL,
			query:    query,
			expected: "SELECT id, name FROM events INTO OUTFILE '/tmp/unload.pipe' " +
				"FIELDS TERMINATED BY x'01' ESCAPED BY '\\\\' LINES TERMINATED BY '\\n'",
		},
		{
			name:    "should_reject_placeholder_predicates",
			dialect: DialectNetezza,
			query: Query{
				Table:     "events",
				Columns:   []string{"id"},
				Predicate: sq.Eq{"name": "bob"},
			},
			errIs: ErrBoundPredicate,
		},
		{
			name:    "should_reject_non_backslash_escape_for_postgres",
			dialect: DialectPostgres,
			query:   query,
			opts:    []Option{WithEscape('~')},
		},
		{
			name:    "should_reject_unknown_dialect",
			dialect: Dialect("oracle"),
			query:   query,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildStatement(tt.dialect, tt.query, "/tmp/unload.pipe", newOptions(tt.opts...))
			if tt.expected == "" {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteByte(t *testing.T) {
	require.Equal(t, "|", quoteByte('|'))
	require.Equal(t, "''", quoteByte('\''))
	require.Equal(t, "\\\\", quoteByte('\\'))
	require.Equal(t, "\\001", quoteByte(0x01))
	require.Equal(t, "\\011", quoteByte('\t'))
}
