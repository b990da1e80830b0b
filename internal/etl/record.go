package etl

import "leads/internal/domain"

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// Sources emit raw Records, the extractor turns each one into a lead row.

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number" | "boolean" | "datetime"
}

// Schema describes the shape of rows written by a destination.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// LeadSchema is the output schema of every lead export.
func LeadSchema() *Schema {
	s := &Schema{Fields: make([]Field, len(domain.LeadFields))}
	for i, name := range domain.LeadFields {
		s.Fields[i] = Field{Name: name, Type: "text"}
	}
	return s
}

// Record is one raw directory entry as decoded from the upstream JSON.
// It is never validated; read it through GetPath / String.
type Record struct {
	Data map[string]any `json:"data"`
}

// Get walks path into the record and reports whether a value was found.
func (r Record) Get(path ...string) (any, bool) {
	return Lookup(r.Data, path...)
}

// String reads path as text, returning def when it is absent or not scalar.
func (r Record) String(def string, path ...string) string {
	return GetString(r.Data, def, path...)
}
