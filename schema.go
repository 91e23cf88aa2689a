package envsmith

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Type identifies the declared type of a schema field.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDuration
	TypeStringList
	TypeIntList
	TypeFloatList
	TypeBoolList
)

var typeNames = map[Type]string{
	TypeString:     "str",
	TypeInt:        "int",
	TypeFloat:      "float",
	TypeBool:       "bool",
	TypeDuration:   "duration",
	TypeStringList: "list[str]",
	TypeIntList:    "list[int]",
	TypeFloatList:  "list[float]",
	TypeBoolList:   "list[bool]",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) isList() bool {
	return t == TypeStringList || t == TypeIntList || t == TypeFloatList || t == TypeBoolList
}

// ParseType parses a schema type annotation such as "int" or "list[str]".
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	// "string" and "list[string]" are accepted as aliases.
	switch s {
	case "string":
		return TypeString, nil
	case "list[string]":
		return TypeStringList, nil
	}
	return 0, fmt.Errorf("unknown type %q", s)
}

// ValidatorFunc is a custom predicate applied to the coerced value.
type ValidatorFunc func(value any) bool

// TransformFunc maps a validated value to its final form.
type TransformFunc func(value any) (any, error)

// Field declares one expected configuration variable.
type Field struct {
	Name        string
	Type        Type
	Required    bool
	Default     any // coerced to the field's Go type at schema build time; nil means no default
	Min         *float64
	Max         *float64
	MinLen      *int
	MaxLen      *int
	Regex       *regexp.Regexp
	Choices     []string
	Description string

	Validator ValidatorFunc
	Transform TransformFunc

	// Names bound against caller-supplied registries when the schema is
	// loaded from a file; programmatic schemas set the funcs directly.
	ValidatorName string
	TransformName string
}

// Schema is an ordered collection of fields. It is immutable once built;
// validation walks the fields in declaration order so issue lists are
// stable.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields, checking each declaration for
// internal consistency and coercing defaults to their field type.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := checkField(&f); err != nil {
			return nil, err
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, &SchemaError{Field: f.Name, Reason: "duplicate field"}
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	return fields
}

// Field returns the declaration for name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.fields) }

// checkField validates one declaration and normalizes its default value.
// Constraints are rejected when they cannot apply to the declared type, so
// a schema mistake fails at load time rather than silently never firing.
func checkField(f *Field) error {
	if f.Name == "" || !validKey(f.Name) {
		return &SchemaError{Field: f.Name, Reason: "name must be a valid environment variable identifier"}
	}
	numeric := f.Type == TypeInt || f.Type == TypeFloat
	if (f.Min != nil || f.Max != nil) && !numeric {
		return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("min/max do not apply to type %s", f.Type)}
	}
	if (f.MinLen != nil || f.MaxLen != nil) && f.Type != TypeString && !f.Type.isList() {
		return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("min_len/max_len do not apply to type %s", f.Type)}
	}
	if f.Regex != nil && f.Type != TypeString {
		return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("regex does not apply to type %s", f.Type)}
	}
	if len(f.Choices) > 0 && f.Type != TypeString && !numeric {
		return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("choices do not apply to type %s", f.Type)}
	}
	if f.Default != nil {
		normalized, err := normalizeDefault(f.Type, f.Default)
		if err != nil {
			return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("default: %v", err)}
		}
		f.Default = normalized
	}
	return nil
}

// normalizeDefault coerces a default value, which a schema file may supply
// as a string, a native scalar, or a native list, to the field's Go type.
func normalizeDefault(t Type, raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return coerceValue(t, s)
	}
	if items, ok := raw.([]any); ok && t.isList() {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = formatScalar(item)
		}
		return coerceList(t, parts)
	}
	// Native scalar from YAML/JSON/TOML; round-trip through the canonical
	// string form so e.g. an int literal satisfies a float field.
	return coerceValue(t, formatScalar(raw))
}

// LoadSchema reads a schema definition from a YAML, JSON, or TOML file.
// Named validators and transforms are bound against the registries supplied
// via WithValidators and WithTransforms.
func LoadSchema(path string, opts ...Option) (*Schema, error) {
	o := newOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Source: path, Reason: fmt.Sprintf("read: %v", err)}
	}

	var raw []rawField
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		// yaml.v3 handles JSON as a YAML subset.
		raw, err = decodeYAMLSchema(data, path)
	case ".toml":
		raw, err = decodeTOMLSchema(data, path)
	default:
		return nil, &SchemaError{Source: path, Reason: fmt.Sprintf("unsupported schema format %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(raw))
	for _, rf := range raw {
		f, err := buildField(rf, path, o)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	schema, err := NewSchema(fields...)
	if err != nil {
		if se, ok := err.(*SchemaError); ok {
			se.Source = path
		}
		return nil, err
	}
	o.logger.Debug("schema loaded", zap.String("source", path), zap.Int("fields", schema.Len()))
	return schema, nil
}

// rawField mirrors the schema file syntax for one field.
type rawField struct {
	name string

	Type        string   `yaml:"type" toml:"type"`
	Required    bool     `yaml:"required" toml:"required"`
	Default     any      `yaml:"default" toml:"default"`
	Min         *float64 `yaml:"min" toml:"min"`
	Max         *float64 `yaml:"max" toml:"max"`
	MinLen      *int     `yaml:"min_len" toml:"min_len"`
	MaxLen      *int     `yaml:"max_len" toml:"max_len"`
	Regex       string   `yaml:"regex" toml:"regex"`
	Choices     []any    `yaml:"choices" toml:"choices"`
	Description string   `yaml:"description" toml:"description"`
	Validator   string   `yaml:"validator" toml:"validator"`
	Transform   string   `yaml:"transform" toml:"transform"`
}

// decodeYAMLSchema walks the document as a node tree rather than a plain
// map so field declaration order survives.
func decodeYAMLSchema(data []byte, source string) ([]rawField, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("parse: %v", err)}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &SchemaError{Source: source, Reason: "top level must be a mapping of field names"}
	}

	var fields []rawField
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		rf := rawField{name: keyNode.Value}

		switch valNode.Kind {
		case yaml.ScalarNode:
			// Shorthand: PORT: int
			rf.Type = valNode.Value
		case yaml.MappingNode:
			if err := valNode.Decode(&rf); err != nil {
				return nil, &SchemaError{Source: source, Field: rf.name, Reason: fmt.Sprintf("decode: %v", err)}
			}
		default:
			return nil, &SchemaError{Source: source, Field: rf.name, Reason: "field definition must be a type name or a mapping"}
		}
		fields = append(fields, rf)
	}
	return fields, nil
}

// decodeTOMLSchema reads field declarations from TOML tables, recovering
// declaration order from the decoder metadata.
func decodeTOMLSchema(data []byte, source string) ([]rawField, error) {
	var prims map[string]toml.Primitive
	md, err := toml.Decode(string(data), &prims)
	if err != nil {
		return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("parse: %v", err)}
	}

	var fields []rawField
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		rf := rawField{name: name}

		// Shorthand: PORT = "int"
		var shorthand string
		if err := md.PrimitiveDecode(prims[name], &shorthand); err == nil {
			rf.Type = shorthand
		} else if err := md.PrimitiveDecode(prims[name], &rf); err != nil {
			return nil, &SchemaError{Source: source, Field: name, Reason: fmt.Sprintf("decode: %v", err)}
		}
		fields = append(fields, rf)
	}
	return fields, nil
}

// buildField converts a raw file declaration into a checked Field.
func buildField(rf rawField, source string, o *options) (Field, error) {
	if rf.Type == "" {
		return Field{}, &SchemaError{Source: source, Field: rf.name, Reason: "missing type"}
	}
	t, err := ParseType(rf.Type)
	if err != nil {
		return Field{}, &SchemaError{Source: source, Field: rf.name, Reason: err.Error()}
	}

	f := Field{
		Name:        rf.name,
		Type:        t,
		Required:    rf.Required,
		Default:     rf.Default,
		Min:         rf.Min,
		Max:         rf.Max,
		MinLen:      rf.MinLen,
		MaxLen:      rf.MaxLen,
		Description: rf.Description,
	}

	if rf.Regex != "" {
		re, err := regexp.Compile(rf.Regex)
		if err != nil {
			return Field{}, &SchemaError{Source: source, Field: rf.name, Reason: fmt.Sprintf("regex: %v", err)}
		}
		f.Regex = re
	}

	for _, c := range rf.Choices {
		f.Choices = append(f.Choices, formatScalar(c))
	}

	if rf.Validator != "" {
		fn, ok := o.validators[rf.Validator]
		if !ok {
			return Field{}, &SchemaError{Source: source, Field: rf.name, Reason: fmt.Sprintf("unknown validator %q", rf.Validator)}
		}
		f.Validator = fn
		f.ValidatorName = rf.Validator
	}
	if rf.Transform != "" {
		fn, ok := o.transforms[rf.Transform]
		if !ok {
			return Field{}, &SchemaError{Source: source, Field: rf.name, Reason: fmt.Sprintf("unknown transform %q", rf.Transform)}
		}
		f.Transform = fn
		f.TransformName = rf.Transform
	}

	return f, nil
}
