package envsmith

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSchemaFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "str", want: TypeString},
		{in: "string", want: TypeString},
		{in: "int", want: TypeInt},
		{in: "float", want: TypeFloat},
		{in: "bool", want: TypeBool},
		{in: "duration", want: TypeDuration},
		{in: "list[str]", want: TypeStringList},
		{in: "list[string]", want: TypeStringList},
		{in: "list[int]", want: TypeIntList},
		{in: "list[float]", want: TypeFloatList},
		{in: "list[bool]", want: TypeBoolList},
		{in: "integer", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseType(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ParseType(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLoadSchemaYAML(t *testing.T) {
	t.Parallel()

	path := writeSchemaFile(t, "app.schema.yaml", `
PORT:
  type: int
  required: true
  min: 1
  max: 65535
DEBUG:
  type: bool
  default: "false"
LOG_LEVEL:
  type: str
  choices: [debug, info, warn, error]
  default: info
TIMEOUT: duration
HOSTS:
  type: list[str]
  min_len: 1
`)

	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Len() != 5 {
		t.Fatalf("expected 5 fields, got %d", schema.Len())
	}

	wantOrder := []string{"PORT", "DEBUG", "LOG_LEVEL", "TIMEOUT", "HOSTS"}
	for i, f := range schema.Fields() {
		if f.Name != wantOrder[i] {
			t.Fatalf("field %d: got %q, want %q", i, f.Name, wantOrder[i])
		}
	}

	port, _ := schema.Field("PORT")
	if port.Type != TypeInt || !port.Required || port.Min == nil || *port.Max != 65535 {
		t.Fatalf("PORT declaration mismatch: %+v", port)
	}
	debug, _ := schema.Field("DEBUG")
	if debug.Default != false {
		t.Fatalf("DEBUG default should coerce to bool false, got %v (%T)", debug.Default, debug.Default)
	}
	level, _ := schema.Field("LOG_LEVEL")
	if len(level.Choices) != 4 || level.Default != "info" {
		t.Fatalf("LOG_LEVEL declaration mismatch: %+v", level)
	}
	timeout, _ := schema.Field("TIMEOUT")
	if timeout.Type != TypeDuration {
		t.Fatalf("shorthand declaration should parse, got %+v", timeout)
	}
}

func TestLoadSchemaJSON(t *testing.T) {
	t.Parallel()

	path := writeSchemaFile(t, "app.schema.json", `{
  "PORT": {"type": "int", "default": 8080},
  "NAME": {"type": "str", "regex": "^[a-z]+$"}
}`)

	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := schema.Field("PORT")
	if port.Default != int64(8080) {
		t.Fatalf("native default should coerce to int64, got %v (%T)", port.Default, port.Default)
	}
	name, _ := schema.Field("NAME")
	if name.Regex == nil || !name.Regex.MatchString("abc") {
		t.Fatalf("regex should compile, got %+v", name)
	}
}

func TestLoadSchemaTOML(t *testing.T) {
	t.Parallel()

	path := writeSchemaFile(t, "app.schema.toml", `
RETRIES = "int"

[PORT]
type = "int"
required = true
min = 1.0

[LOG_LEVEL]
type = "str"
choices = ["debug", "info"]
`)

	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Len() != 3 {
		t.Fatalf("expected 3 fields, got %d", schema.Len())
	}

	retries, ok := schema.Field("RETRIES")
	if !ok || retries.Type != TypeInt {
		t.Fatalf("string shorthand should declare an int field, got %+v", retries)
	}
	port, _ := schema.Field("PORT")
	if !port.Required || port.Min == nil || *port.Min != 1 {
		t.Fatalf("PORT declaration mismatch: %+v", port)
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "UnknownType", file: "s.yaml", content: "PORT: whatever\n"},
		{name: "MissingType", file: "s.yaml", content: "PORT:\n  required: true\n"},
		{name: "BadRegex", file: "s.yaml", content: "NAME:\n  type: str\n  regex: \"[\"\n"},
		{name: "UnknownValidator", file: "s.yaml", content: "NAME:\n  type: str\n  validator: nope\n"},
		{name: "TopLevelNotMapping", file: "s.yaml", content: "- PORT\n"},
		{name: "UnsupportedExtension", file: "s.ini", content: "PORT=int\n"},
		{name: "MinOnString", file: "s.yaml", content: "NAME:\n  type: str\n  min: 3\n"},
		{name: "RegexOnInt", file: "s.yaml", content: "PORT:\n  type: int\n  regex: \"^\\\\d+$\"\n"},
		{name: "ChoicesOnBool", file: "s.yaml", content: "DEBUG:\n  type: bool\n  choices: [true, false]\n"},
		{name: "BadDefault", file: "s.yaml", content: "PORT:\n  type: int\n  default: not-a-number\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSchemaFile(t, tc.file, tc.content)
			_, err := LoadSchema(path)
			if !errors.Is(err, ErrSchema) {
				t.Fatalf("expected a schema error, got %v", err)
			}
		})
	}
}

func TestLoadSchemaMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSchema(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected a schema error, got %v", err)
	}
}

func TestLoadSchemaBindsNamedFuncs(t *testing.T) {
	t.Parallel()

	path := writeSchemaFile(t, "s.yaml", `
NAME:
  type: str
  validator: nonempty
  transform: upper
`)

	schema, err := LoadSchema(path,
		WithValidators(map[string]ValidatorFunc{
			"nonempty": func(v any) bool { return v.(string) != "" },
		}),
		WithTransforms(map[string]TransformFunc{
			"upper": func(v any) (any, error) { return v, nil },
		}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, _ := schema.Field("NAME")
	if f.Validator == nil || f.ValidatorName != "nonempty" {
		t.Fatalf("validator should be bound: %+v", f)
	}
	if f.Transform == nil || f.TransformName != "upper" {
		t.Fatalf("transform should be bound: %+v", f)
	}
}

func TestNewSchemaRejectsInvalidDeclarations(t *testing.T) {
	t.Parallel()

	three := 3.0
	tests := []struct {
		name  string
		field Field
	}{
		{name: "EmptyName", field: Field{Type: TypeString}},
		{name: "BadIdentifier", field: Field{Name: "9PORT", Type: TypeInt}},
		{name: "MinOnString", field: Field{Name: "NAME", Type: TypeString, Min: &three}},
		{name: "MinLenOnInt", field: Field{Name: "PORT", Type: TypeInt, MinLen: new(int)}},
		{name: "BadDefault", field: Field{Name: "PORT", Type: TypeInt, Default: "abc"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSchema(tc.field); !errors.Is(err, ErrSchema) {
				t.Fatalf("expected a schema error, got %v", err)
			}
		})
	}
}

func TestNewSchemaRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewSchema(
		Field{Name: "PORT", Type: TypeInt},
		Field{Name: "PORT", Type: TypeInt},
	)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected a schema error, got %v", err)
	}
}
