package envsmith

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves env://NAME references to process environment
// variables. An unset variable is a resolution failure, not an empty value.
type EnvProvider struct{}

// Scheme implements Provider.
func (EnvProvider) Scheme() string { return "env" }

// Resolve implements Provider.
func (EnvProvider) Resolve(_ context.Context, uri string) (string, error) {
	name := strings.TrimPrefix(uri, "env://")
	if name == "" || name == uri {
		return "", fmt.Errorf("malformed env URI %q", uri)
	}
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return value, nil
}

// FileProvider resolves file://path references to the trimmed contents of a
// file, e.g. Docker/Kubernetes mounted secrets.
type FileProvider struct{}

// Scheme implements Provider.
func (FileProvider) Scheme() string { return "file" }

// Resolve implements Provider.
func (FileProvider) Resolve(_ context.Context, uri string) (string, error) {
	path := strings.TrimPrefix(uri, "file://")
	if path == "" || path == uri {
		return "", fmt.Errorf("malformed file URI %q", uri)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func init() {
	Register(EnvProvider{})
	Register(FileProvider{})
}
