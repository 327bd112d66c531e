package schema

import "github.com/qbloq/dbgraphql/internal/sdata"

// TableCapabilities is spec.md §4.5's per-table operation capability set,
// used by C7 to decide which mutations to emit.
type TableCapabilities struct {
	CanQuery  bool
	CanCreate bool
	CanUpdate bool
	CanDelete bool
	HasRLS    bool
}

// ColumnCapabilities is spec.md §4.5's per-column operation capability
// set.
type ColumnCapabilities struct {
	CanSelect bool
	CanInsert bool
	CanUpdate bool
}

// FilteredModel is the output of Filter: a role-scoped Model plus the
// capability sets C7 consumes to decide what to generate.
type FilteredModel struct {
	Model         sdata.Model
	TableCaps     map[string]TableCapabilities
	ColumnCaps    map[string]map[string]ColumnCapabilities
}

// Filter is spec.md's pure function filter(model, privileges) → model'
// (component C6). It:
//  1. drops tables where the role has no privilege of any kind,
//  2. for each kept table keeps columns the role may select
//     (superuser OR table-level SELECT OR explicit column-level SELECT),
//  3. preserves foreign keys only when both endpoints survive,
//  4. computes per-table and per-column operation capabilities.
//
// Filter never mutates model or priv; it returns a fresh derivative, so
// the golden model backing other roles' views is never aliased.
func Filter(model sdata.Model, priv *sdata.RolePrivileges) FilteredModel {
	out := FilteredModel{
		Model:      sdata.Model{SchemaName: model.SchemaName, Enums: model.Enums, Composites: model.Composites},
		TableCaps:  make(map[string]TableCapabilities),
		ColumnCaps: make(map[string]map[string]ColumnCapabilities),
	}

	kept := make(map[string]bool, len(model.Tables))
	for _, t := range model.Tables {
		if !priv.HasAnyPrivilege(t.Name) {
			continue
		}
		kept[t.Name] = true

		ft := sdata.Table{Name: t.Name, IsView: t.IsView}
		colCaps := make(map[string]ColumnCapabilities, len(t.Columns))

		for _, c := range t.Columns {
			canSelect := priv.IsSuperuser || priv.CanTable(t.Name, sdata.OpSelect) || priv.CanColumn(t.Name, sdata.OpSelect, c.Name)
			if !canSelect {
				continue
			}
			ft.Columns = append(ft.Columns, c)
			colCaps[c.Name] = ColumnCapabilities{
				CanSelect: true,
				CanInsert: !t.IsView && (priv.IsSuperuser || priv.CanTable(t.Name, sdata.OpInsert) || priv.CanColumn(t.Name, sdata.OpInsert, c.Name)),
				CanUpdate: !t.IsView && (priv.IsSuperuser || priv.CanTable(t.Name, sdata.OpUpdate) || priv.CanColumn(t.Name, sdata.OpUpdate, c.Name)),
			}
		}

		out.Model.Tables = append(out.Model.Tables, ft)
		out.ColumnCaps[t.Name] = colCaps
		out.TableCaps[t.Name] = TableCapabilities{
			CanQuery:  true,
			CanCreate: !t.IsView && priv.CanTable(t.Name, sdata.OpInsert),
			CanUpdate: !t.IsView && priv.CanTable(t.Name, sdata.OpUpdate),
			CanDelete: !t.IsView && priv.CanTable(t.Name, sdata.OpDelete),
			HasRLS:    priv.HasRLS(t.Name),
		}
	}

	// Preserve foreign keys only when both endpoints survive (spec.md
	// §4.5), re-deriving from the original table and keeping an FK only
	// when its referenced table, its own column and its referenced column
	// all survived filtering.
	for i := range out.Model.Tables {
		ft := &out.Model.Tables[i]
		src, _ := model.Table(ft.Name)
		for _, fk := range src.ForeignKeys {
			if !kept[fk.ReferencedTable] {
				continue
			}
			if !hasColumn(ft.Columns, fk.Column) {
				continue
			}
			refTable, ok := out.Model.Table(fk.ReferencedTable)
			if !ok || !hasColumn(refTable.Columns, fk.ReferencedColumn) {
				continue
			}
			ft.ForeignKeys = append(ft.ForeignKeys, fk)
		}
	}

	return out
}

func hasColumn(cols []sdata.Column, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}
