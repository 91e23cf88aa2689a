package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/envsmith/envsmith"
)

// Exit codes reported by the CLI.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitMissingKeys  = 3
	ExitSchema       = 4
	ExitFileNotFound = 5
)

// ExitError carries a process exit code alongside the message shown to the
// user.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// App holds the state shared by every subcommand.
type App struct {
	Out      io.Writer
	Logger   *zap.Logger
	Override bool
	NoExpand bool
}

// New returns an App writing to out.
func New(out io.Writer, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{Out: out, Logger: logger}
}

// loadOptions builds the pipeline options for a command. Most commands
// load files only, with the process environment available as expansion
// fallback; withBase additionally merges the process environment into the
// result, and the global --override flag decides whether file values
// replace inherited ones.
func (a *App) loadOptions(withBase bool) []envsmith.Option {
	opts := []envsmith.Option{
		envsmith.WithLogger(a.Logger),
		envsmith.WithExpand(!a.NoExpand),
	}
	if withBase {
		opts = append(opts, envsmith.WithBase(environSnapshot()), envsmith.WithOverride(a.Override))
	}
	return opts
}

func environSnapshot() map[string]string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		if i := strings.IndexByte(entry, '='); i > 0 {
			env[entry[:i]] = entry[i+1:]
		}
	}
	return env
}

// exitFor translates a pipeline error into the documented exit code.
func exitFor(err error) *ExitError {
	code := ExitFailure
	switch {
	case errors.Is(err, envsmith.ErrValidation):
		code = ExitValidation
	case errors.Is(err, envsmith.ErrMissingKeys):
		code = ExitMissingKeys
	case errors.Is(err, envsmith.ErrSchema):
		code = ExitSchema
	case errors.Is(err, envsmith.ErrFileNotFound):
		code = ExitFileNotFound
	}
	return &ExitError{Code: code, Message: err.Error()}
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	keyColor = color.New(color.FgCyan).SprintFunc()
)

func (a *App) ok(format string, args ...any) {
	fmt.Fprintf(a.Out, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

func (a *App) fail(format string, args ...any) {
	fmt.Fprintf(a.Out, "%s %s\n", failMark("✗"), fmt.Sprintf(format, args...))
}

// printTable renders key/value rows in a fixed-width table, masking values
// whose keys look like credentials.
func (a *App) printTable(title string, keys []string, lookup func(string) (string, bool)) {
	fmt.Fprintln(a.Out, title)
	fmt.Fprintln(a.Out, strings.Repeat("-", 72))
	for _, key := range keys {
		value, ok := lookup(key)
		if !ok {
			continue
		}
		if looksSecret(key) {
			value = maskValue(value)
		}
		if len(value) > 48 {
			value = value[:45] + "..."
		}
		fmt.Fprintf(a.Out, "%-30s %s\n", keyColor(key), value)
	}
	fmt.Fprintln(a.Out, strings.Repeat("-", 72))
}

func looksSecret(key string) bool {
	upper := strings.ToUpper(key)
	return strings.Contains(upper, "SECRET") ||
		strings.Contains(upper, "PASSWORD") ||
		strings.Contains(upper, "TOKEN") ||
		strings.Contains(upper, "KEY")
}

func maskValue(value string) string {
	if len(value) > 8 {
		return value[:3] + "***" + value[len(value)-3:]
	}
	if value == "" {
		return ""
	}
	return "***"
}
