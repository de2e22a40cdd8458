package warehouse

import (
	_ "embed"
	"strings"
)

//go:embed sql/schema.sql
var schema string

// schemaStatements splits the embedded DDL into single statements so it can be
// executed on drivers that reject multi-statement Exec.
func schemaStatements() []string {
	var b strings.Builder
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, s := range strings.Split(b.String(), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
