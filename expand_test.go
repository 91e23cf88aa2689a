package envsmith

import (
	"errors"
	"strings"
	"testing"
)

func mapOf(pairs ...string) *Map {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestExpandBasic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *Map
		key  string
		want string
	}{
		{
			name: "Braced",
			in:   mapOf("HOST", "localhost", "URL", "http://${HOST}/x"),
			key:  "URL",
			want: "http://localhost/x",
		},
		{
			name: "Bare",
			in:   mapOf("USER", "alice", "HOME_DIR", "/home/$USER"),
			key:  "HOME_DIR",
			want: "/home/alice",
		},
		{
			name: "Transitive",
			in:   mapOf("A", "a", "B", "${A}b", "C", "${B}c"),
			key:  "C",
			want: "abc",
		},
		{
			name: "BareDelimitedByNonIdent",
			in:   mapOf("V", "1", "OUT", "$V/$V.txt"),
			key:  "OUT",
			want: "1/1.txt",
		},
		{
			name: "LoneDollarIsLiteral",
			in:   mapOf("PRICE", "5$ off"),
			key:  "PRICE",
			want: "5$ off",
		},
		{
			name: "UnterminatedBraceIsLiteral",
			in:   mapOf("V", "${OOPS"),
			key:  "V",
			want: "${OOPS",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := expandMap(tc.in, nil, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v, _ := out.Get(tc.key); v != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, v)
			}
		})
	}
}

func TestExpandFallback(t *testing.T) {
	t.Parallel()

	fallback := func(name string) (string, bool) {
		if name == "FROM_ENV" {
			return "fallback-value", true
		}
		return "", false
	}

	out, err := expandMap(mapOf("V", "${FROM_ENV}"), fallback, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := out.Get("V"); v != "fallback-value" {
		t.Fatalf("expected fallback value, got %q", v)
	}
}

func TestExpandMapWinsOverFallback(t *testing.T) {
	t.Parallel()

	fallback := func(string) (string, bool) { return "from-fallback", true }

	out, err := expandMap(mapOf("NAME", "from-map", "V", "${NAME}"), fallback, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := out.Get("V"); v != "from-map" {
		t.Fatalf("expected map value to win, got %q", v)
	}
}

func TestExpandUnresolved(t *testing.T) {
	t.Parallel()

	t.Run("fails by default", func(t *testing.T) {
		_, err := expandMap(mapOf("V", "${NOPE}"), nil, false)
		if !errors.Is(err, ErrUnresolvedReference) {
			t.Fatalf("expected ErrUnresolvedReference, got %v", err)
		}
		var refErr *ReferenceError
		if !errors.As(err, &refErr) || refErr.Name != "NOPE" || refErr.Key != "V" {
			t.Fatalf("unexpected reference error: %+v", refErr)
		}
	})

	t.Run("keeps literal when configured", func(t *testing.T) {
		out, err := expandMap(mapOf("V", "${NOPE}"), nil, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v, _ := out.Get("V"); v != "${NOPE}" {
			t.Fatalf("expected literal reference, got %q", v)
		}
	})
}

func TestExpandCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *Map
	}{
		{name: "TwoNode", in: mapOf("X", "${Y}", "Y", "${X}")},
		{name: "SelfReference", in: mapOf("X", "${X}")},
		{name: "ThreeNode", in: mapOf("A", "${B}", "B", "${C}", "C", "${A}")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := expandMap(tc.in, nil, false)
			if !errors.Is(err, ErrCyclicReference) {
				t.Fatalf("expected ErrCyclicReference, got %v", err)
			}
			var cycle *CycleError
			if !errors.As(err, &cycle) {
				t.Fatalf("expected CycleError, got %T", err)
			}
			if len(cycle.Path) < 2 || cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
				t.Fatalf("cycle path should close on itself: %v", cycle.Path)
			}
			if !strings.Contains(err.Error(), "->") {
				t.Fatalf("expected chain in message, got %q", err.Error())
			}
		})
	}
}

func TestExpandIdempotent(t *testing.T) {
	t.Parallel()

	in := mapOf("HOST", "localhost", "URL", "http://${HOST}/x")
	once, err := expandMap(in, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := expandMap(once, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range once.Keys() {
		v1, _ := once.Get(key)
		v2, _ := twice.Get(key)
		if v1 != v2 {
			t.Fatalf("expansion not idempotent for %s: %q vs %q", key, v1, v2)
		}
	}
}
