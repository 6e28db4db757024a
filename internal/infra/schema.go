package infra

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*
var schemaFS embed.FS

// Schema returns the DDL statements a backend expects to be provisioned.
// Cassandra and Postgres are provisioned out of band (see the schema command);
// SQLite applies its statements on open.
func Schema(backend, keyspace string) ([]string, error) {
	var file string
	switch backend {
	case BackendCassandra:
		file = "schema/cassandra.cql"
	case BackendPostgres:
		file = "schema/postgres.sql"
	case BackendSQLite:
		file = "schema/sqlite.sql"
	default:
		return nil, fmt.Errorf("no schema for backend %q", backend)
	}

	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	text := strings.ReplaceAll(string(raw), "{{keyspace}}", keyspace)

	var stmts []string
	for _, s := range strings.Split(text, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}
