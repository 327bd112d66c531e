package sdata

import (
	"context"
	"strings"
)

// ReadRolePrivileges implements the catalog-reading half of the Role
// Privilege Service (spec.md §4.4, component C5): table privileges from
// the standard catalog (SELECT/INSERT/UPDATE/DELETE/TRUNCATE/REFERENCES),
// column-level grants per operation, and RLS policies visible to role.
// `superuser` short-circuits all checks as "everything" (spec.md §3.1).
func ReadRolePrivileges(ctx context.Context, db Querier, schema, role string) (*RolePrivileges, error) {
	p := NewRolePrivileges(role)

	isSuper, err := readIsSuperuser(ctx, db, role)
	if err != nil {
		return nil, err
	}
	p.IsSuperuser = isSuper
	if isSuper {
		return p, nil
	}

	if err := readTablePrivileges(ctx, db, schema, role, p); err != nil {
		return nil, err
	}
	if err := readColumnPrivileges(ctx, db, schema, role, p); err != nil {
		return nil, err
	}
	policies, err := readRLSPolicies(ctx, db, schema)
	if err != nil {
		return nil, err
	}
	p.RLSPolicies = policies

	return p, nil
}

func readIsSuperuser(ctx context.Context, db Querier, role string) (bool, error) {
	rows, err := db.Query(ctx, isSuperuserStmt, role)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var super bool
		if err := rows.Scan(&super); err != nil {
			return false, err
		}
		return super, rows.Err()
	}
	return false, rows.Err()
}

func readTablePrivileges(ctx context.Context, db Querier, schema, role string, p *RolePrivileges) error {
	rows, err := db.Query(ctx, tablePrivilegesStmt, schema, role)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table, privType string
		if err := rows.Scan(&table, &privType); err != nil {
			return err
		}
		if op, ok := operationFor(privType); ok {
			p.GrantTable(table, op)
		}
	}
	return rows.Err()
}

func readColumnPrivileges(ctx context.Context, db Querier, schema, role string, p *RolePrivileges) error {
	rows, err := db.Query(ctx, columnPrivilegesStmt, schema, role)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table, column, privType string
		if err := rows.Scan(&table, &column, &privType); err != nil {
			return err
		}
		if op, ok := operationFor(privType); ok {
			p.GrantColumn(table, op, column)
		}
	}
	return rows.Err()
}

func readRLSPolicies(ctx context.Context, db Querier, schema string) ([]RLSPolicy, error) {
	rows, err := db.Query(ctx, rlsPoliciesStmt, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RLSPolicy
	for rows.Next() {
		var pol RLSPolicy
		var roles []string
		var command string
		if err := rows.Scan(&pol.PolicyName, &pol.Table, &pol.Schema, &pol.Permissive, &roles, &command,
			&pol.UsingExpression, &pol.WithCheckExpression); err != nil {
			return nil, err
		}
		pol.Roles = roles
		pol.Command = commandName(command)
		out = append(out, pol)
	}
	return out, rows.Err()
}

func operationFor(privType string) (Operation, bool) {
	switch strings.ToUpper(privType) {
	case "SELECT":
		return OpSelect, true
	case "INSERT":
		return OpInsert, true
	case "UPDATE":
		return OpUpdate, true
	case "DELETE":
		return OpDelete, true
	default:
		return 0, false
	}
}

// commandName expands pg_policy.polcmd's single-character code into the
// command name spec.md's RlsPolicy carries.
func commandName(code string) string {
	switch code {
	case "r":
		return "SELECT"
	case "a":
		return "INSERT"
	case "w":
		return "UPDATE"
	case "d":
		return "DELETE"
	case "*":
		return "ALL"
	default:
		return code
	}
}
