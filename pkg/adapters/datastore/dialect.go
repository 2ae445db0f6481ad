package datastore

import (
	"fmt"
	"strings"
)

// ColumnKind is a portable column type used to build provisioning scripts.
type ColumnKind string

const (
	KindUUID      ColumnKind = "uuid"
	KindInteger   ColumnKind = "integer"
	KindText      ColumnKind = "text"
	KindJSON      ColumnKind = "json"
	KindDecimal   ColumnKind = "decimal"
	KindDate      ColumnKind = "date"
	KindTimestamp ColumnKind = "timestamp"
)

// Column describes one column of a target table.
type Column struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// Dialect abstracts database-specific SQL generation.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	// Placeholder returns the bind parameter for a 1-based position.
	Placeholder(index int) string
	// QuoteString returns s as an escaped string literal.
	QuoteString(s string) string
	BoolLiteral(b bool) string
	ColumnType(kind ColumnKind) string
	// MaxParams is the bind parameter limit of a single statement.
	MaxParams() int
}

// CreateTableScript renders a CREATE TABLE statement for columns.
func CreateTableScript(d Dialect, table string, columns []Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", d.QuoteIdentifier(table))
	for i, col := range columns {
		null := " NOT NULL"
		if col.Nullable {
			null = ""
		}
		fmt.Fprintf(&b, "    %s %s%s", d.QuoteIdentifier(col.Name), d.ColumnType(col.Kind), null)
		if i < len(columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// InsertStatement renders a multi-row INSERT with bind parameters numbered
// from 1, row by row.
func InsertStatement(d Dialect, table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.QuoteIdentifier(table), strings.Join(quoted, ", "))
	n := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// PostgresDialect targets PostgreSQL and PostgREST-fronted databases.
type PostgresDialect struct{}

func (PostgresDialect) Name() string                       { return "postgres" }
func (PostgresDialect) QuoteIdentifier(name string) string { return doubleQuote(name) }
func (PostgresDialect) Placeholder(index int) string       { return fmt.Sprintf("$%d", index) }
func (PostgresDialect) QuoteString(s string) string {
	return singleQuote(strings.ReplaceAll(s, "\x00", ""))
}
func (PostgresDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
func (PostgresDialect) MaxParams() int { return 65535 }
func (PostgresDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindUUID:
		return "UUID"
	case KindInteger:
		return "INTEGER"
	case KindJSON:
		return "JSONB"
	case KindDecimal:
		return "NUMERIC(18,2)"
	case KindDate:
		return "DATE"
	case KindTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// SQLServerDialect targets Microsoft SQL Server and Azure SQL.
type SQLServerDialect struct{}

func (SQLServerDialect) Name() string { return "sqlserver" }
func (SQLServerDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
func (SQLServerDialect) Placeholder(index int) string { return fmt.Sprintf("@p%d", index) }

// QuoteString uses an N'...' literal so non-ASCII text survives.
func (SQLServerDialect) QuoteString(s string) string { return "N" + singleQuote(s) }
func (SQLServerDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
func (SQLServerDialect) MaxParams() int { return 2000 }
func (SQLServerDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindUUID:
		return "UNIQUEIDENTIFIER"
	case KindInteger:
		return "INT"
	case KindDecimal:
		return "DECIMAL(18,2)"
	case KindDate:
		return "DATE"
	case KindTimestamp:
		return "DATETIMEOFFSET"
	default:
		return "NVARCHAR(MAX)"
	}
}

// MySQLDialect targets MySQL and MariaDB.
type MySQLDialect struct{}

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

func (MySQLDialect) Name() string { return "mysql" }
func (MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
func (MySQLDialect) Placeholder(int) string      { return "?" }
func (MySQLDialect) QuoteString(s string) string { return "'" + mysqlEscaper.Replace(s) + "'" }
func (MySQLDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
func (MySQLDialect) MaxParams() int { return 65535 }
func (MySQLDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindUUID:
		return "CHAR(36)"
	case KindInteger:
		return "INT"
	case KindJSON:
		return "JSON"
	case KindDecimal:
		return "DECIMAL(18,2)"
	case KindDate:
		return "DATE"
	case KindTimestamp:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

// SQLiteDialect targets SQLite files, mostly for local use and tests.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string                       { return "sqlite" }
func (SQLiteDialect) QuoteIdentifier(name string) string { return doubleQuote(name) }
func (SQLiteDialect) Placeholder(int) string             { return "?" }
func (SQLiteDialect) QuoteString(s string) string        { return singleQuote(s) }
func (SQLiteDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
func (SQLiteDialect) MaxParams() int { return 32766 }
func (SQLiteDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindInteger:
		return "INTEGER"
	case KindDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

var (
	_ Dialect = PostgresDialect{}
	_ Dialect = SQLServerDialect{}
	_ Dialect = MySQLDialect{}
	_ Dialect = SQLiteDialect{}
)
