package model

// Field names a Result field. The order of Fields is the export order.
type Field string

const (
	FieldAttribute   Field = "attribute"
	FieldValue       Field = "value"
	FieldConditions  Field = "conditions"
	FieldSource      Field = "source"
	FieldReliability Field = "reliability"
)

// Fields is the fixed field set every Result carries
var Fields = []Field{FieldAttribute, FieldValue, FieldConditions, FieldSource, FieldReliability}

// Result is one extracted fact about the searched compound.
// A nil field is absent; after normalization every field is non-nil.
type Result struct {
	Attribute   *string `json:"attribute" xml:"attribute"`     // Property name (e.g., "Melting point")
	Value       *string `json:"value" xml:"value"`             // Extracted value
	Conditions  *string `json:"conditions" xml:"conditions"`   // Qualifying conditions (e.g., temperature)
	Source      *string `json:"source" xml:"source"`           // Parser/site that produced the result
	Reliability *string `json:"reliability" xml:"reliability"` // Optional trust annotation
}

// String returns a pointer to s, for building Results inline
func String(s string) *string {
	return &s
}

// NewResult creates a Result with the given attribute, value and source.
// Conditions and reliability stay absent.
func NewResult(attribute, value, source string) *Result {
	return &Result{
		Attribute: String(attribute),
		Value:     String(value),
		Source:    String(source),
	}
}

// Ref returns the storage slot of a field, or nil for an unknown field
func (r *Result) Ref(f Field) **string {
	switch f {
	case FieldAttribute:
		return &r.Attribute
	case FieldValue:
		return &r.Value
	case FieldConditions:
		return &r.Conditions
	case FieldSource:
		return &r.Source
	case FieldReliability:
		return &r.Reliability
	default:
		return nil
	}
}

// Get returns the value of a field, treating absent as empty
func (r *Result) Get(f Field) string {
	ref := r.Ref(f)
	if ref == nil || *ref == nil {
		return ""
	}
	return **ref
}

// Has reports whether a field holds a value (possibly empty)
func (r *Result) Has(f Field) bool {
	ref := r.Ref(f)
	return ref != nil && *ref != nil
}

// Missing lists the fields that are absent
func (r *Result) Missing() []Field {
	var missing []Field
	for _, f := range Fields {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Clone returns a deep copy of the result
func (r *Result) Clone() *Result {
	c := &Result{}
	for _, f := range Fields {
		if r.Has(f) {
			*c.Ref(f) = String(r.Get(f))
		}
	}
	return c
}

// Values returns the field values in Fields order, absent as empty
func (r *Result) Values() []string {
	values := make([]string, len(Fields))
	for i, f := range Fields {
		values[i] = r.Get(f)
	}
	return values
}
