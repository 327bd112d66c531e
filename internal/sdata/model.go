// Package sdata holds the Database Model (spec.md §3.1): the internal,
// dialect-agnostic-in-shape representation of tables, columns, foreign
// keys, enums, composites, and role privileges that every other component
// is derived from. Types here are grounded in
// core/internal/sdata/sql.go's catalog queries and generalized from the
// eight-dialect DBTable/DBColumn shape the teacher carries into a single
// Postgres-flavored model, per SPEC_FULL.md.
package sdata

// ScalarKind enumerates the base SQL scalar kinds spec.md §3.1 names.
type ScalarKind int

const (
	KindUnknown ScalarKind = iota
	KindInt32
	KindInt64
	KindSmallInt
	KindFloat32
	KindFloat64
	KindNumeric
	KindBool
	KindText
	KindVarchar
	KindChar
	KindUUID
	KindDate
	KindTimestamp
	KindTimestampTZ
	KindTime
	KindTimeTZ
	KindInterval
	KindJSON
	KindJSONB
	KindBytea
	KindInet
	KindCidr
	KindMacaddr
	KindBit
	KindVarbit
	KindXML
)

// TypeDescriptorTag discriminates the tagged-union variants of
// TypeDescriptor (spec.md §3.1).
type TypeDescriptorTag int

const (
	TagScalar TypeDescriptorTag = iota
	TagArray
	TagEnum
	TagComposite
	TagDomain
	TagUnknown
)

// TypeDescriptor is the tagged variant carried by every ColumnEntry.
// Exactly the fields relevant to Tag are meaningful; the others are zero.
type TypeDescriptor struct {
	Tag TypeDescriptorTag

	// TagScalar
	Kind      ScalarKind
	Precision int // numeric(p,s), varchar(n), char(n)
	Scale     int

	// TagArray
	Element *TypeDescriptor

	// TagEnum / TagComposite
	Name string

	// TagEnum
	EnumValues []string

	// TagComposite
	Fields []CompositeAttribute

	// TagDomain
	Base *TypeDescriptor

	// TagUnknown
	Raw string
}

// IsArray reports whether the descriptor is an Array(element) variant.
func (t TypeDescriptor) IsArray() bool { return t.Tag == TagArray }

// Column is spec.md's ColumnEntry.
type Column struct {
	Name         string
	Type         TypeDescriptor
	IsPrimaryKey bool
	IsNullable   bool
}

// ForeignKey is spec.md's ForeignKey: a single column pointing at a
// referenced (table, column) pair.
type ForeignKey struct {
	Column            string
	ReferencedTable   string
	ReferencedColumn  string
}

// Table is spec.md's TableEntry.
type Table struct {
	Name        string
	IsView      bool
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column looks up a column by name on this table.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKeys returns the ordered list of primary-key columns.
func (t Table) PrimaryKeys() []Column {
	var pks []Column
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// Enum is spec.md's CustomEnum.
type Enum struct {
	Name   string
	Schema string
	Values []string // ordered, stable
}

// CompositeAttribute is one field of a Composite, spec.md §3.1.
type CompositeAttribute struct {
	Name     string
	Type     TypeDescriptor
	Order    int
	Nullable bool
}

// Composite is spec.md's CustomComposite.
type Composite struct {
	Name       string
	Schema     string
	Attributes []CompositeAttribute
}

// Model is the full reflected Database Model for one schema (spec.md
// §3.1): every table/view, custom enum and composite type known to the
// target schema.
type Model struct {
	SchemaName string
	Tables     []Table
	Enums      []Enum
	Composites []Composite
}

// Table looks up a table by name.
func (m Model) Table(name string) (Table, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Clone copies the model's table, column, foreign-key, enum and composite
// slices so a filtered derivative (C6) can change them without touching
// the golden model. Each Enum's Values and each Composite's Attributes
// slice is still shared with the original.
func (m Model) Clone() Model {
	out := Model{SchemaName: m.SchemaName}
	out.Tables = make([]Table, len(m.Tables))
	for i, t := range m.Tables {
		nt := t
		nt.Columns = append([]Column(nil), t.Columns...)
		nt.ForeignKeys = append([]ForeignKey(nil), t.ForeignKeys...)
		out.Tables[i] = nt
	}
	out.Enums = append([]Enum(nil), m.Enums...)
	out.Composites = append([]Composite(nil), m.Composites...)
	return out
}
