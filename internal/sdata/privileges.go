package sdata

// Operation enumerates the privilege dimensions tracked per table/column
// (spec.md §3.1: selectable/insertable/updatable/deletable).
type Operation int

const (
	OpSelect Operation = iota
	OpInsert
	OpUpdate
	OpDelete
)

// RLSPolicy is spec.md's RlsPolicy, carried for completeness: the core
// never re-implements row-level security, it relies on the database
// enforcing it once the role is set on the connection (spec.md §3.1,
// §5).
type RLSPolicy struct {
	PolicyName         string
	Table              string
	Schema             string
	Permissive         bool
	Roles              []string
	Command             string
	UsingExpression    string
	WithCheckExpression string
}

// tableColOp keys the per-(operation,table) column-privilege sets.
type tableColOp struct {
	table string
	op    Operation
}

// RolePrivileges is spec.md's RolePrivileges: sets of tables
// selectable/insertable/updatable/deletable, the matching per-column
// grants, the RLS policies visible to the role, and a superuser
// short-circuit.
type RolePrivileges struct {
	Role         string
	IsSuperuser  bool
	TablePrivs   map[string]map[Operation]bool
	ColumnPrivs  map[tableColOp]map[string]bool
	RLSPolicies  []RLSPolicy
}

// NewRolePrivileges builds an empty privilege set for role.
func NewRolePrivileges(role string) *RolePrivileges {
	return &RolePrivileges{
		Role:        role,
		TablePrivs:  make(map[string]map[Operation]bool),
		ColumnPrivs: make(map[tableColOp]map[string]bool),
	}
}

// GrantTable records that role has op privilege on table.
func (p *RolePrivileges) GrantTable(table string, op Operation) {
	m, ok := p.TablePrivs[table]
	if !ok {
		m = make(map[Operation]bool)
		p.TablePrivs[table] = m
	}
	m[op] = true
}

// GrantColumn records that role has op privilege on table.column.
func (p *RolePrivileges) GrantColumn(table string, op Operation, column string) {
	k := tableColOp{table, op}
	m, ok := p.ColumnPrivs[k]
	if !ok {
		m = make(map[string]bool)
		p.ColumnPrivs[k] = m
	}
	m[column] = true
}

// CanTable reports whether role has op privilege on table, short-circuited
// by superuser.
func (p *RolePrivileges) CanTable(table string, op Operation) bool {
	if p.IsSuperuser {
		return true
	}
	ops, ok := p.TablePrivs[table]
	return ok && ops[op]
}

// HasAnyPrivilege reports whether role has any privilege at all on table
// (used by C6 to decide whether to drop the table entirely).
func (p *RolePrivileges) HasAnyPrivilege(table string) bool {
	if p.IsSuperuser {
		return true
	}
	ops, ok := p.TablePrivs[table]
	if ok {
		for _, v := range ops {
			if v {
				return true
			}
		}
	}
	for k, cols := range p.ColumnPrivs {
		if k.table == table {
			for _, v := range cols {
				if v {
					return true
				}
			}
		}
	}
	return false
}

// CanColumn reports whether role can perform op on table.column, either
// via a table-wide grant (SELECT only, per spec.md §4.5) or an explicit
// column-level grant.
func (p *RolePrivileges) CanColumn(table string, op Operation, column string) bool {
	if p.IsSuperuser {
		return true
	}
	if op == OpSelect && p.CanTable(table, OpSelect) {
		return true
	}
	cols, ok := p.ColumnPrivs[tableColOp{table, op}]
	return ok && cols[column]
}

// PoliciesFor returns the RLS policies visible to role on table.
func (p *RolePrivileges) PoliciesFor(table string) []RLSPolicy {
	var out []RLSPolicy
	for _, pol := range p.RLSPolicies {
		if pol.Table == table {
			out = append(out, pol)
		}
	}
	return out
}

// HasRLS reports whether any RLS policy applies to table for this role.
func (p *RolePrivileges) HasRLS(table string) bool {
	return len(p.PoliciesFor(table)) > 0
}
