package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

const envTemplate = `# Application environment
APP_NAME=myapp
APP_ENV=development
PORT=8080
DEBUG=false

# References to other keys are expanded
DATABASE_HOST=localhost
DATABASE_URL=postgres://${DATABASE_HOST}:5432/myapp

# Secret references are resolved through providers
# DB_PASSWORD=secret://file/./secrets/db_password
`

const schemaTemplate = `APP_NAME:
  type: str
  required: true
  min_len: 1
APP_ENV:
  type: str
  default: development
  choices: [development, staging, production]
PORT:
  type: int
  default: 8080
  min: 1
  max: 65535
DEBUG:
  type: bool
  default: false
DATABASE_HOST:
  type: str
  default: localhost
DATABASE_URL:
  type: str
  required: true
  regex: "^postgres://"
  description: PostgreSQL connection string
`

// Init scaffolds a starter .env and schema file in dir. Existing files are
// preserved unless force is set.
func (a *App) Init(dir string, force bool) error {
	for _, f := range []struct {
		name    string
		content string
	}{
		{".env", envTemplate},
		{"envsmith.schema.yaml", schemaTemplate},
	} {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			a.fail("%s already exists (use --force to overwrite)", path)
			return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%s already exists", path)}
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return exitFor(fmt.Errorf("write %s: %w", path, err))
		}
		a.ok("created %s", path)
	}
	return nil
}
