package envsmith

// Map is an insertion-ordered set of key/value pairs. Setting an existing
// key overwrites its value but keeps its original position, so iteration
// order is stable across precedence merges. Keys are never empty.
//
// A Map is owned by the pipeline stage that produced it; stages never
// mutate their input, they clone and return a new Map.
type Map struct {
	keys   []string
	values map[string]string
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Set stores value under key, appending the key if it is new. Empty keys
// are ignored.
func (m *Map) Set(key, value string) {
	if key == "" {
		return
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Values returns a plain map copy of the contents.
func (m *Map) Values() map[string]string {
	values := make(map[string]string, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return values
}

// Clone returns an independent copy preserving insertion order.
func (m *Map) Clone() *Map {
	c := &Map{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]string, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}
