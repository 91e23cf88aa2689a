package envsmith

import (
	"bufio"
	"fmt"
	"strings"
)

// RawAssignment is one KEY=VALUE line as read from a source file, before
// any merging or expansion. It is never mutated after creation.
type RawAssignment struct {
	Key   string
	Value string
	File  string
	Line  int
}

// parseFile turns the raw text of one environment file into the ordered
// sequence of assignments it contains. Blank lines and lines starting with
// '#' are skipped. Unparseable lines are collected as LineError values so a
// single pass reports every problem; callers wanting fail-fast behavior
// stop at the first returned error.
func parseFile(content, source string) ([]RawAssignment, []*LineError) {
	var (
		assignments []RawAssignment
		errs        []*LineError
	)

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseLine(line)
		if err != nil {
			errs = append(errs, &LineError{File: source, Line: lineNo, Reason: err.Error()})
			continue
		}

		assignments = append(assignments, RawAssignment{
			Key:   key,
			Value: value,
			File:  source,
			Line:  lineNo,
		})
	}

	return assignments, errs
}

// parseLine splits a trimmed, non-empty, non-comment line into key and
// value. The caller has already stripped surrounding whitespace.
func parseLine(line string) (string, string, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("missing '='")
	}

	key := strings.TrimSpace(line[:eq])
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}
	if !validKey(key) {
		return "", "", fmt.Errorf("invalid key %q", key)
	}

	value, err := parseValue(strings.TrimSpace(line[eq+1:]))
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

// validKey reports whether key matches the identifier pattern: letters,
// digits, and underscores, not starting with a digit.
func validKey(key string) bool {
	for i, r := range key {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// parseValue handles the three value forms: single-quoted (taken literally),
// double-quoted (escape sequences processed), and bare (trimmed, with an
// inline '#' comment stripped).
func parseValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	switch raw[0] {
	case '\'':
		end := strings.IndexByte(raw[1:], '\'')
		if end < 0 {
			return "", fmt.Errorf("unterminated single-quoted value")
		}
		if rest := strings.TrimSpace(raw[end+2:]); rest != "" && !strings.HasPrefix(rest, "#") {
			return "", fmt.Errorf("unexpected content after closing quote")
		}
		return raw[1 : end+1], nil

	case '"':
		return parseDoubleQuoted(raw)

	default:
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		return strings.TrimSpace(raw), nil
	}
}

func parseDoubleQuoted(raw string) (string, error) {
	var b strings.Builder
	escaped := false
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\\', '$':
				b.WriteByte(c)
			default:
				b.WriteByte('\\')
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			if rest := strings.TrimSpace(raw[i+1:]); rest != "" && !strings.HasPrefix(rest, "#") {
				return "", fmt.Errorf("unexpected content after closing quote")
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated double-quoted value")
}
