package envsmith

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LoadEnv runs the resolution pipeline over paths: parse each file, merge
// in caller order with last-file-wins precedence, expand ${VAR} references,
// and resolve secret URIs. The returned map is fully resolved; on any fatal
// condition the error describes it and no partial map is returned.
func LoadEnv(paths []string, opts ...Option) (*Map, error) {
	o := newOptions(opts)

	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}

	fileSets := make([][]RawAssignment, 0, len(paths))
	var parseErrs error
	for _, path := range paths {
		content, err := readEnvFile(path)
		if err != nil {
			if o.allowMissing && os.IsNotExist(err) {
				o.logger.Debug("skipping missing file", zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}

		assignments, lineErrs := parseFile(content, path)
		for _, le := range lineErrs {
			if o.failFast {
				return nil, le
			}
			parseErrs = multierr.Append(parseErrs, le)
		}
		fileSets = append(fileSets, assignments)
		o.logger.Debug("parsed file",
			zap.String("path", path),
			zap.Int("assignments", len(assignments)),
			zap.Int("invalid_lines", len(lineErrs)))
	}
	if parseErrs != nil {
		return nil, parseErrs
	}

	merged := mergeFiles(fileSets, o.base, o.override)

	resolved := merged
	if o.expand {
		var err error
		resolved, err = expandMap(merged, o.fallback, o.keepUnresolved)
		if err != nil {
			return nil, err
		}
	}

	if !o.noSecrets {
		var err error
		resolved, err = resolveSecrets(context.Background(), resolved)
		if err != nil {
			return nil, err
		}
	}

	o.logger.Info("environment loaded",
		zap.Int("keys", resolved.Len()),
		zap.Int("files", len(fileSets)))
	return resolved, nil
}

func readEnvFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Require verifies that every listed key is present in the map, reporting
// all absentees at once.
func Require(m *Map, keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !m.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

// Apply writes the map into the process environment. This is an explicit,
// opt-in side effect; loading never touches the process environment by
// itself. With override=false, variables already set in the process keep
// their current values.
func Apply(m *Map, override bool) error {
	for _, key := range m.Keys() {
		if !override {
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
		}
		value, _ := m.Get(key)
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
