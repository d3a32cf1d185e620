package postgres

import _ "embed"

// SchemaSQL holds the idempotent schema definition. It is applied by the
// test harness and by deployments that do not run migrations separately.
//
//go:embed schema.sql
var SchemaSQL string
