package envsmith

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EncodeJSON writes the map as indented JSON.
func EncodeJSON(w io.Writer, m *Map) error {
	return encodeJSON(w, toAnyMap(m))
}

// EncodeConfigJSON writes a validated configuration as indented JSON.
func EncodeConfigJSON(w io.Writer, cfg ValidatedConfig) error {
	return encodeJSON(w, marshalable(cfg))
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// EncodeYAML writes the map as a YAML mapping.
func EncodeYAML(w io.Writer, m *Map) error {
	return encodeYAML(w, toAnyMap(m))
}

// EncodeConfigYAML writes a validated configuration as a YAML mapping.
func EncodeConfigYAML(w io.Writer, cfg ValidatedConfig) error {
	return encodeYAML(w, marshalable(cfg))
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// EncodeEnv writes the map in KEY=VALUE form, quoting values so the output
// parses back to the same map.
func EncodeEnv(w io.Writer, m *Map) error {
	for _, key := range m.Keys() {
		value, _ := m.Get(key)
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, quoteEnvValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeConfigEnv writes a validated configuration in KEY=VALUE form using
// schema declaration order.
func EncodeConfigEnv(w io.Writer, schema *Schema, cfg ValidatedConfig) error {
	for _, f := range schema.fields {
		value, ok := cfg[f.Name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", f.Name, quoteEnvValue(formatEnvValue(value))); err != nil {
			return err
		}
	}
	return nil
}

// quoteEnvValue double-quotes a value when the bare form would not
// round-trip through the parser.
func quoteEnvValue(value string) string {
	if value == "" {
		return `""`
	}
	if !strings.ContainsAny(value, " \t\n\"'#\\$") {
		return value
	}
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`, "$", `\$`)
	return `"` + replacer.Replace(value) + `"`
}

func formatEnvValue(value any) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ",")
	case []int64, []float64, []bool:
		return joinList(v)
	default:
		return formatScalar(value)
	}
}

func joinList(value any) string {
	var parts []string
	switch v := value.(type) {
	case []int64:
		for _, n := range v {
			parts = append(parts, formatScalar(n))
		}
	case []float64:
		for _, n := range v {
			parts = append(parts, formatScalar(n))
		}
	case []bool:
		for _, n := range v {
			parts = append(parts, formatScalar(n))
		}
	}
	return strings.Join(parts, ",")
}

func toAnyMap(m *Map) map[string]string {
	return m.Values()
}

// marshalable rewrites values whose default encoding is unhelpful, such as
// time.Duration rendering as raw nanoseconds.
func marshalable(cfg ValidatedConfig) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		if d, ok := v.(time.Duration); ok {
			out[k] = d.String()
			continue
		}
		out[k] = v
	}
	return out
}
