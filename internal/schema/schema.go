// Package schema defines the compile-time field registries for every
// versioned data-entry entity. Each entity type declares an allow-listed,
// ordered set of typed fields; the change detector and the record store are
// driven by these declarations instead of iterating arbitrary payload keys.
package schema

// FieldKind classifies how a field's values are coerced and compared.
type FieldKind string

const (
	KindNumeric FieldKind = "numeric"
	KindString  FieldKind = "string"
)

// Field describes one allow-listed field of an entity schema.
type Field struct {
	Name string
	Kind FieldKind
	// NullsCompareAsZero makes a null or missing stored value compare as 0
	// against numeric candidates, so a null-to-0 edit is not a detected
	// change. This is the named policy for all financial figures; disable
	// per field when null and 0 must stay distinguishable.
	NullsCompareAsZero bool
}

// Schema is the field registry for one entity type.
type Schema struct {
	// EntityType is the stable identifier used in storage and audit rows,
	// e.g. "profit_loss_data".
	EntityType string
	// ResourcePath is the URL segment the entity is served under,
	// e.g. "profit-loss".
	ResourcePath string
	// Fields in declaration order. Changed-field lists always follow this
	// order so audit output is reproducible.
	Fields []Field
	// Derive, when set, fills calculated fields into a candidate before
	// change detection. It must not overwrite caller-supplied values.
	Derive func(candidate map[string]interface{}) map[string]interface{}

	index map[string]int
}

// New builds a Schema and indexes its fields by name.
func New(entityType, resourcePath string, fields []Field) *Schema {
	s := &Schema{
		EntityType:   entityType,
		ResourcePath: resourcePath,
		Fields:       fields,
		index:        make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Field returns the declaration for name, or false if the field is not part
// of this schema.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// FieldNames returns all field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
