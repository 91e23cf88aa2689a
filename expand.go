package envsmith

import (
	"slices"
	"strings"
)

// LookupFunc supplies fallback values for names not defined in the map
// being expanded, typically os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// expander resolves ${NAME} and bare $NAME references transitively over one
// map. Resolution of each name is memoized, and the chain of names being
// resolved is tracked so cycles are reported with their full path.
type expander struct {
	src      *Map
	fallback LookupFunc
	keep     bool // leave unresolvable references literal instead of failing

	resolved map[string]string
	stack    []string
}

// expandMap returns a new Map with every reference in every value replaced
// by the referenced value. The result is deterministic for a fixed input.
func expandMap(src *Map, fallback LookupFunc, keepUnresolved bool) (*Map, error) {
	e := &expander{
		src:      src,
		fallback: fallback,
		keep:     keepUnresolved,
		resolved: make(map[string]string, src.Len()),
	}

	out := NewMap()
	for _, key := range src.Keys() {
		value, err := e.resolve(key)
		if err != nil {
			return nil, err
		}
		out.Set(key, value)
	}
	return out, nil
}

// resolve returns the fully expanded value for a key defined in the source
// map, running a depth-first expansion of its references.
func (e *expander) resolve(key string) (string, error) {
	if v, ok := e.resolved[key]; ok {
		return v, nil
	}
	if i := slices.Index(e.stack, key); i >= 0 {
		cycle := append(slices.Clone(e.stack[i:]), key)
		return "", &CycleError{Path: cycle}
	}

	raw, _ := e.src.Get(key)
	e.stack = append(e.stack, key)
	value, err := e.expandValue(key, raw)
	e.stack = e.stack[:len(e.stack)-1]
	if err != nil {
		return "", err
	}

	e.resolved[key] = value
	return value, nil
}

// expandValue substitutes every reference inside one value. key names the
// map entry being expanded, for error reporting.
func (e *expander) expandValue(key, value string) (string, error) {
	if !strings.ContainsRune(value, '$') {
		return value, nil
	}

	var b strings.Builder
	for i := 0; i < len(value); {
		c := value[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		name, literal, next := scanReference(value, i)
		if name == "" {
			b.WriteString(literal)
			i = next
			continue
		}

		replacement, ok, err := e.lookup(name)
		if err != nil {
			return "", err
		}
		if !ok {
			if e.keep {
				b.WriteString(literal)
				i = next
				continue
			}
			return "", &ReferenceError{Key: key, Name: name}
		}
		b.WriteString(replacement)
		i = next
	}
	return b.String(), nil
}

// lookup resolves a referenced name: the map under construction wins,
// then the fallback, else the reference is unresolved.
func (e *expander) lookup(name string) (string, bool, error) {
	if e.src.Has(name) {
		v, err := e.resolve(name)
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}
	if e.fallback != nil {
		if v, ok := e.fallback(name); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// scanReference reads a reference starting at the '$' at position start.
// It returns the referenced name (empty when the '$' does not introduce a
// reference), the literal text consumed, and the index of the first byte
// after it. Both ${NAME} and bare $NAME forms are recognized; a bare name
// ends at the first byte that is not part of an identifier.
func scanReference(value string, start int) (name, literal string, next int) {
	if start+1 >= len(value) {
		return "", value[start:], len(value)
	}

	if value[start+1] == '{' {
		end := strings.IndexByte(value[start+2:], '}')
		if end < 0 {
			// Unterminated ${ is kept literally.
			return "", value[start:], len(value)
		}
		name = value[start+2 : start+2+end]
		next = start + 2 + end + 1
		if !validKey(name) || name == "" {
			return "", value[start:next], next
		}
		return name, value[start:next], next
	}

	end := start + 1
	for end < len(value) && isIdentByte(value[end], end == start+1) {
		end++
	}
	if end == start+1 {
		return "", value[start : start+1], start + 1
	}
	return value[start+1 : end], value[start:end], end
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return true
	case c >= '0' && c <= '9':
		return !first
	default:
		return false
	}
}
