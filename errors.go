package envsmith

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound is returned when a declared source file does not exist.
	ErrFileNotFound = errors.New("environment file not found")
	// ErrInvalidLine is returned when an environment file line cannot be parsed.
	ErrInvalidLine = errors.New("invalid environment line")
	// ErrCyclicReference is returned when variable expansion encounters a reference cycle.
	ErrCyclicReference = errors.New("cyclic variable reference")
	// ErrUnresolvedReference is returned when a value references a name that resolves to nothing.
	ErrUnresolvedReference = errors.New("unresolved variable reference")
	// ErrSecretResolution is returned when a registered secret provider fails to resolve a URI.
	ErrSecretResolution = errors.New("secret resolution failed")
	// ErrSchema is returned when a schema definition itself is malformed.
	ErrSchema = errors.New("invalid schema")
	// ErrValidation is returned when the resolved environment violates the schema.
	ErrValidation = errors.New("environment validation failed")
	// ErrMissingKeys is returned when required keys are absent from the loaded map.
	ErrMissingKeys = errors.New("missing required keys")
)

// LineError describes a single unparseable line in a source file.
type LineError struct {
	File   string
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

func (e *LineError) Unwrap() error { return ErrInvalidLine }

// CycleError reports a reference cycle found during expansion. Path holds
// the chain of names leading back to the first element.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicReference }

// ReferenceError reports a reference to a name that is defined nowhere.
type ReferenceError struct {
	Key  string
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s references undefined variable %q", e.Key, e.Name)
}

func (e *ReferenceError) Unwrap() error { return ErrUnresolvedReference }

// SecretError reports a failed secret lookup for a specific key and URI.
type SecretError struct {
	Key string
	URI string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("resolving secret for %s (%s): %v", e.Key, e.URI, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// Is reports whether target matches the secret-resolution error class.
func (e *SecretError) Is(target error) bool { return target == ErrSecretResolution }

// SchemaError reports a malformed schema definition.
type SchemaError struct {
	Source string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Source != "" && e.Field != "":
		return fmt.Sprintf("schema %s: field %s: %s", e.Source, e.Field, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("schema field %s: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("schema %s: %s", e.Source, e.Reason)
	}
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ValidationError aggregates every issue found in a validation pass.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d issue(s):", len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  %s: %s: %s", issue.Field, issue.Kind, issue.Message)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MissingKeysError lists every required key absent from the loaded map.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required keys: %s", strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Unwrap() error { return ErrMissingKeys }
