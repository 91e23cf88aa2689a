package envsmith

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadEnvSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", `
# database settings
DB_HOST=localhost
DB_PORT=5432
DB_URL=postgres://${DB_HOST}:${DB_PORT}/app
`)

	m, err := LoadEnv([]string{path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url, _ := m.Get("DB_URL"); url != "postgres://localhost:5432/app" {
		t.Fatalf("DB_URL = %q", url)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", m.Len())
	}
}

func TestLoadEnvPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := writeEnvFile(t, dir, ".env", "PORT=80\nHOST=localhost\n")
	local := writeEnvFile(t, dir, ".env.local", "PORT=8080\n")

	m, err := LoadEnv([]string{base, local})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port, _ := m.Get("PORT"); port != "8080" {
		t.Fatalf("later file should win, got PORT=%q", port)
	}
	if host, _ := m.Get("HOST"); host != "localhost" {
		t.Fatalf("HOST = %q", host)
	}
}

func TestLoadEnvBaseMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "PORT=8080\nEXTRA=file\n")
	base := map[string]string{"PORT": "9090", "FROM_BASE": "yes"}

	t.Run("BaseWins", func(t *testing.T) {
		m, err := LoadEnv([]string{path}, WithBase(base))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if port, _ := m.Get("PORT"); port != "9090" {
			t.Fatalf("base should win without override, got %q", port)
		}
		if v, _ := m.Get("FROM_BASE"); v != "yes" {
			t.Fatalf("base-only key missing, got %q", v)
		}
	})

	t.Run("OverrideFlipsPrecedence", func(t *testing.T) {
		m, err := LoadEnv([]string{path}, WithBase(base), WithOverride(true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if port, _ := m.Get("PORT"); port != "8080" {
			t.Fatalf("file should win with override, got %q", port)
		}
	})
}

func TestLoadEnvMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := writeEnvFile(t, dir, ".env", "A=1\n")
	absent := filepath.Join(dir, ".env.local")

	_, err := LoadEnv([]string{present, absent})
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	m, err := LoadEnv([]string{present, absent}, WithAllowMissing())
	if err != nil {
		t.Fatalf("unexpected error with allow-missing: %v", err)
	}
	if v, _ := m.Get("A"); v != "1" {
		t.Fatalf("A = %q", v)
	}
}

func TestLoadEnvNoPaths(t *testing.T) {
	t.Parallel()

	if _, err := LoadEnv(nil); err == nil {
		t.Fatalf("expected error for empty path list")
	}
}

func TestLoadEnvCollectsParseErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "GOOD=1\nbad line\n9KEY=2\n")

	_, err := LoadEnv([]string{path})
	if !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("expected ErrInvalidLine, got %v", err)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected both invalid lines reported, got %d: %v", got, err)
	}
}

func TestLoadEnvFailFast(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "bad line\nalso bad\n")

	_, err := LoadEnv([]string{path}, WithFailFast())
	var lerr *LineError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LineError, got %v", err)
	}
	if lerr.Line != 1 {
		t.Fatalf("fail-fast should stop at the first error, got line %d", lerr.Line)
	}
}

func TestLoadEnvNoExpand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "A=x\nB=${A}\n")

	m, err := LoadEnv([]string{path}, WithExpand(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, _ := m.Get("B"); b != "${A}" {
		t.Fatalf("expansion disabled, want literal reference, got %q", b)
	}
}

func TestLoadEnvFallbackToProcessEnv(t *testing.T) {
	t.Setenv("LOADER_FALLBACK_HOST", "from-process")

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "URL=http://${LOADER_FALLBACK_HOST}/\n")

	m, err := LoadEnv([]string{path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url, _ := m.Get("URL"); url != "http://from-process/" {
		t.Fatalf("URL = %q", url)
	}
}

func TestLoadEnvSecretResolution(t *testing.T) {
	t.Setenv("LOADER_SECRET", "hunter2")

	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "DB_PASS=secret://env/LOADER_SECRET\n")

	m, err := LoadEnv([]string{path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := m.Get("DB_PASS"); v != "hunter2" {
		t.Fatalf("DB_PASS = %q", v)
	}

	m, err = LoadEnv([]string{path}, WithNoSecrets())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := m.Get("DB_PASS"); v != "secret://env/LOADER_SECRET" {
		t.Fatalf("secrets disabled, want literal URI, got %q", v)
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	m := mapOf("A", "1", "B", "2")
	if err := Require(m, "A", "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Require(m, "A", "C", "D")
	if !errors.Is(err, ErrMissingKeys) {
		t.Fatalf("expected ErrMissingKeys, got %v", err)
	}
	var merr *MissingKeysError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MissingKeysError, got %T", err)
	}
	if len(merr.Keys) != 2 || merr.Keys[0] != "C" || merr.Keys[1] != "D" {
		t.Fatalf("missing keys = %v", merr.Keys)
	}
}

func TestApply(t *testing.T) {
	t.Setenv("APPLY_EXISTING", "original")
	t.Setenv("APPLY_FRESH", "")
	os.Unsetenv("APPLY_FRESH")

	m := mapOf("APPLY_EXISTING", "replaced", "APPLY_FRESH", "new")

	if err := Apply(m, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := os.Getenv("APPLY_EXISTING"); v != "original" {
		t.Fatalf("existing variable must be kept, got %q", v)
	}
	if v := os.Getenv("APPLY_FRESH"); v != "new" {
		t.Fatalf("APPLY_FRESH = %q", v)
	}

	if err := Apply(m, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := os.Getenv("APPLY_EXISTING"); v != "replaced" {
		t.Fatalf("override must replace, got %q", v)
	}
}
