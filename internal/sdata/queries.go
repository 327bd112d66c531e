package sdata

import _ "embed"

// Catalog queries embedded the way core/internal/sdata/sql.go embeds its
// per-dialect introspection SQL — kept to the single Postgres dialect
// this module supports (SPEC_FULL.md §5).

//go:embed sql/tables.sql
var tablesStmt string

//go:embed sql/columns.sql
var columnsStmt string

//go:embed sql/primary_keys.sql
var primaryKeysStmt string

//go:embed sql/foreign_keys.sql
var foreignKeysStmt string

//go:embed sql/enums.sql
var enumsStmt string

//go:embed sql/composites.sql
var compositesStmt string

//go:embed sql/table_privileges.sql
var tablePrivilegesStmt string

//go:embed sql/column_privileges.sql
var columnPrivilegesStmt string

//go:embed sql/rls_policies.sql
var rlsPoliciesStmt string

//go:embed sql/is_superuser.sql
var isSuperuserStmt string
