package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/envsmith/envsmith"
)

// defaultFiles substitutes the conventional .env when no files were given.
func defaultFiles(files []string) []string {
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}

// Check loads the environment files and asserts the presence of required
// keys.
func (a *App) Check(files, require []string) error {
	files = defaultFiles(files)

	env, err := envsmith.LoadEnv(files, a.loadOptions(false)...)
	if err != nil {
		a.fail("%v", err)
		return exitFor(err)
	}

	if err := envsmith.Require(env, require...); err != nil {
		var missing *envsmith.MissingKeysError
		if errors.As(err, &missing) {
			a.fail("missing required variables: %s", strings.Join(missing.Keys, ", "))
		}
		return exitFor(err)
	}

	a.ok("environment check passed")
	fmt.Fprintf(a.Out, "  loaded %d variables from %d file(s)\n", env.Len(), len(files))
	if len(require) > 0 {
		fmt.Fprintf(a.Out, "  all required variables present\n")
	}
	return nil
}

// Validate runs the full pipeline and checks the result against a schema.
func (a *App) Validate(schemaPath string, files []string, format string, strict bool) error {
	schema, err := envsmith.LoadSchema(schemaPath, envsmith.WithLogger(a.Logger))
	if err != nil {
		a.fail("schema error: %v", err)
		return exitFor(err)
	}

	env, err := envsmith.LoadEnv(defaultFiles(files), a.loadOptions(false)...)
	if err != nil {
		a.fail("%v", err)
		return exitFor(err)
	}

	cfg, err := envsmith.ValidateEnv(schema, env, envsmith.WithStrict(strict))
	if err != nil {
		var verr *envsmith.ValidationError
		if errors.As(err, &verr) {
			a.fail("validation failed:")
			for _, issue := range verr.Issues {
				fmt.Fprintf(a.Out, "  %s: %s: %s\n", keyColor(issue.Field), issue.Kind, issue.Message)
			}
		} else {
			a.fail("%v", err)
		}
		return exitFor(err)
	}

	a.ok("environment validation passed")
	fmt.Fprintf(a.Out, "  validated %d variables against %s\n", len(cfg), schemaPath)
	return a.renderConfig(schema, cfg, format)
}

// Export prints the resolved environment in a machine-readable format,
// validated and typed when a schema is supplied.
func (a *App) Export(schemaPath string, files []string, format string) error {
	env, err := envsmith.LoadEnv(defaultFiles(files), a.loadOptions(false)...)
	if err != nil {
		return exitFor(err)
	}

	if schemaPath != "" {
		schema, err := envsmith.LoadSchema(schemaPath, envsmith.WithLogger(a.Logger))
		if err != nil {
			return exitFor(err)
		}
		cfg, err := envsmith.ValidateEnv(schema, env)
		if err != nil {
			return exitFor(err)
		}
		return a.encodeConfig(schema, cfg, format)
	}

	return a.encodeMap(env, format)
}

// Print dumps the loaded map. Without all, only file-supplied values are
// shown; with all, the inherited process environment is included.
func (a *App) Print(files []string, format string, all bool) error {
	env, err := envsmith.LoadEnv(defaultFiles(files), a.loadOptions(all)...)
	if err != nil {
		a.fail("%v", err)
		return exitFor(err)
	}

	switch format {
	case "table":
		a.printTable("Environment Variables", env.Keys(), env.Get)
		return nil
	default:
		return a.encodeMap(env, format)
	}
}

// Watch revalidates on every change to the source file until interrupted.
func (a *App) Watch(schemaPath, file string, interval time.Duration) error {
	opts := append(a.loadOptions(false),
		envsmith.WithInterval(interval),
	)
	if schemaPath != "" {
		schema, err := envsmith.LoadSchema(schemaPath, envsmith.WithLogger(a.Logger))
		if err != nil {
			return exitFor(err)
		}
		opts = append(opts, envsmith.WithSchema(schema))
	}

	watcher, err := envsmith.Watch(file, func(r envsmith.Reload) {
		if r.Err != nil {
			a.fail("reload failed: %v", r.Err)
			return
		}
		a.ok("reloaded %d variables", r.Env.Len())
	}, opts...)
	if err != nil {
		a.fail("%v", err)
		return exitFor(err)
	}

	watcher.Start()
	defer watcher.Stop()

	a.ok("watching %s (interval %s), press Ctrl+C to stop", file, interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Logger.Info("shutting down watcher")
	return nil
}

func (a *App) renderConfig(schema *envsmith.Schema, cfg envsmith.ValidatedConfig, format string) error {
	switch format {
	case "table":
		fields := schema.Fields()
		keys := make([]string, 0, len(fields))
		for _, f := range fields {
			keys = append(keys, f.Name)
		}
		a.printTable("Validated Environment Variables", keys, func(key string) (string, bool) {
			v, ok := cfg[key]
			if !ok {
				return "", false
			}
			return fmt.Sprintf("%v", v), true
		})
		return nil
	default:
		return a.encodeConfig(schema, cfg, format)
	}
}

func (a *App) encodeConfig(schema *envsmith.Schema, cfg envsmith.ValidatedConfig, format string) error {
	var err error
	switch format {
	case "json":
		err = envsmith.EncodeConfigJSON(a.Out, cfg)
	case "yaml":
		err = envsmith.EncodeConfigYAML(a.Out, cfg)
	case "env":
		err = envsmith.EncodeConfigEnv(a.Out, schema, cfg)
	default:
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return exitFor(err)
	}
	return nil
}

func (a *App) encodeMap(env *envsmith.Map, format string) error {
	var err error
	switch format {
	case "json":
		err = envsmith.EncodeJSON(a.Out, env)
	case "yaml":
		err = envsmith.EncodeYAML(a.Out, env)
	case "env":
		err = envsmith.EncodeEnv(a.Out, env)
	default:
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return exitFor(err)
	}
	return nil
}
