package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/envsmith/envsmith/internal/cli"
	"github.com/envsmith/envsmith/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run wires flags to commands and maps errors to exit codes. It is
// separate from main so tests can drive it with an in-memory writer.
func run(args []string, out io.Writer) int {
	app := kingpin.New("envsmith", "Environment configuration loader with expansion, secrets, and schema validation")

	verbose := app.Flag("verbose", "Enable debug logging").Short('v').Bool()
	quiet := app.Flag("quiet", "Suppress all output except errors").Short('q').Bool()
	override := app.Flag("override", "Let file values override inherited environment variables").Bool()
	noExpand := app.Flag("no-expand", "Disable ${VAR} reference expansion").Bool()

	initCmd := app.Command("init", "Scaffold a starter .env and schema file")
	initDir := initCmd.Flag("dir", "Target directory").Default(".").String()
	initForce := initCmd.Flag("force", "Overwrite existing files").Bool()

	checkCmd := app.Command("check", "Load environment files and assert required keys")
	checkFiles := checkCmd.Flag("file", "Environment file (repeatable, defaults to .env)").Short('f').Strings()
	checkRequire := checkCmd.Flag("require", "Required variable name (repeatable)").Short('r').Strings()

	validateCmd := app.Command("validate", "Validate the environment against a schema")
	validateSchema := validateCmd.Flag("schema", "Schema file (YAML, JSON, or TOML)").Short('s').Required().String()
	validateFiles := validateCmd.Flag("file", "Environment file (repeatable, defaults to .env)").Short('f').Strings()
	validateFormat := validateCmd.Flag("format", "Output format").Default("table").Enum("table", "json", "env")
	validateStrict := validateCmd.Flag("strict", "Report keys not declared in the schema").Default("true").Bool()

	exportCmd := app.Command("export", "Print the resolved environment in a machine-readable format")
	exportFiles := exportCmd.Flag("file", "Environment file (repeatable, defaults to .env)").Short('f').Strings()
	exportFormat := exportCmd.Flag("format", "Output format").Default("json").Enum("json", "yaml", "env")
	exportSchema := exportCmd.Flag("schema", "Validate and type values against this schema before exporting").Short('s').String()

	printCmd := app.Command("print", "Dump the loaded environment map")
	printFiles := printCmd.Flag("file", "Environment file (repeatable, defaults to .env)").Short('f').Strings()
	printFormat := printCmd.Flag("format", "Output format").Default("table").Enum("table", "json", "yaml", "env")
	printAll := printCmd.Flag("all", "Include inherited process environment variables").Bool()

	watchCmd := app.Command("watch", "Reload and revalidate whenever the environment file changes")
	watchFile := watchCmd.Flag("file", "Environment file to watch").Short('f').Default(".env").String()
	watchSchema := watchCmd.Flag("schema", "Validate each reload against this schema").Short('s').String()
	watchInterval := watchCmd.Flag("interval", "Polling interval").Default("1s").Duration()

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	logger, err := logging.New(*verbose, *quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return cli.ExitFailure
	}
	defer func() {
		_ = logger.Sync()
	}()

	a := cli.New(out, logger)
	a.Override = *override
	a.NoExpand = *noExpand

	switch command {
	case initCmd.FullCommand():
		err = a.Init(*initDir, *initForce)
	case checkCmd.FullCommand():
		err = a.Check(*checkFiles, *checkRequire)
	case validateCmd.FullCommand():
		err = a.Validate(*validateSchema, *validateFiles, *validateFormat, *validateStrict)
	case exportCmd.FullCommand():
		err = a.Export(*exportSchema, *exportFiles, *exportFormat)
	case printCmd.FullCommand():
		err = a.Print(*printFiles, *printFormat, *printAll)
	case watchCmd.FullCommand():
		err = a.Watch(*watchSchema, *watchFile, *watchInterval)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		return cli.ExitFailure
	}

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}
