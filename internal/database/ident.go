package database

import "strings"

// QuoteIdentifier safely quotes a PostgreSQL identifier (database, table,
// role name) by wrapping it in double-quotes and doubling any internal
// double-quotes.
//
//	QuoteIdentifier(`my"db`) → `"my""db"`
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
