// Command migrate manages the StorePulse database schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/infrastructure/config"
	"github.com/storepulse/backend/internal/infrastructure/logger"
	"github.com/storepulse/backend/internal/infrastructure/migration"
)

// options are the parsed flags and positional arguments of one invocation
type options struct {
	dir     string
	confirm bool
	args    []string
	log     *zap.Logger
}

// command is one migrate subcommand. Commands with a schema func need a
// database connection, the others only touch the migrations directory.
type command struct {
	usage  string
	files  func(opts options) error
	schema func(m *migration.Migrator, opts options) error
}

var commands = map[string]command{
	"up":      {usage: "up                    Apply all pending migrations", schema: func(m *migration.Migrator, _ options) error { return m.Up() }},
	"down":    {usage: "down                  Roll back all migrations", schema: func(m *migration.Migrator, _ options) error { return m.Down() }},
	"step":    {usage: "step <n>              Apply n migrations, negative n rolls back", schema: stepCmd},
	"goto":    {usage: "goto <version>        Migrate to a specific version", schema: gotoCmd},
	"force":   {usage: "force <version>       Set the version without running migrations", schema: forceCmd},
	"version": {usage: "version               Show the current version", schema: versionCmd},
	"drop":    {usage: "drop                  Drop every database object (needs -confirm)", schema: dropCmd},
	"create":  {usage: "create <name> [desc]  Create the next numbered migration pair", files: createCmd},
	"list":    {usage: "list                  List migration files", files: listCmd},
}

var commandOrder = []string{"up", "down", "step", "goto", "version", "force", "drop", "create", "list"}

func main() {
	dir := flag.String("path", "migrations", "Path to migrations directory")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	confirm := flag.Bool("confirm", false, "Confirm destructive commands")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", TimeFormat: "2006-01-02 15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	abs, err := filepath.Abs(*dir)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	opts := options{
		dir:     abs,
		confirm: *confirm,
		args:    flag.Args()[1:],
		log:     log.With(zap.String("command", name), zap.String("migrations_path", abs)),
	}

	if cmd.files != nil {
		err = cmd.files(opts)
	} else {
		err = withMigrator(opts, cmd.schema)
	}
	if err != nil {
		opts.log.Fatal("Migration command failed", zap.Error(err))
	}
}

// withMigrator connects with the SP_DATABASE_* settings and runs fn
func withMigrator(opts options, fn func(*migration.Migrator, options) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migration.DirSource(opts.dir), opts.log)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m, opts)
}

func stepCmd(m *migration.Migrator, opts options) error {
	n, err := intArg(opts.args, "step count")
	if err != nil {
		return err
	}
	return m.Steps(n)
}

func gotoCmd(m *migration.Migrator, opts options) error {
	n, err := intArg(opts.args, "version")
	if err != nil {
		return err
	}
	if n < 0 {
		return errors.New("version must not be negative")
	}
	return m.GoTo(uint(n))
}

func forceCmd(m *migration.Migrator, opts options) error {
	n, err := intArg(opts.args, "version")
	if err != nil {
		return err
	}
	return m.Force(n)
}

func versionCmd(m *migration.Migrator, opts options) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	opts.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func dropCmd(m *migration.Migrator, opts options) error {
	if !opts.confirm {
		return errors.New("drop removes every table, rerun with -confirm")
	}
	return m.Drop()
}

func createCmd(opts options) error {
	if len(opts.args) == 0 {
		return errors.New("migration name required: migrate create <name> [description]")
	}
	var description string
	if len(opts.args) > 1 {
		description = opts.args[1]
	}
	mf, err := migration.CreateMigration(opts.dir, opts.args[0], description)
	if err != nil {
		return err
	}
	opts.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listCmd(opts options) error {
	files, err := migration.ListMigrations(opts.dir)
	if err != nil {
		return err
	}
	opts.log.Info("Available migrations", zap.Int("count", len(files)))
	for _, f := range files {
		fmt.Println("  -", f.BaseName())
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, args[0], err)
	}
	return n, nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Usage: migrate [flags] <command> [arguments]")
	fmt.Fprintln(out, "\nCommands:")
	for _, name := range commandOrder {
		fmt.Fprintln(out, "  "+commands[name].usage)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe database is configured with SP_DATABASE_HOST, SP_DATABASE_PORT, SP_DATABASE_USER,")
	fmt.Fprintln(out, "SP_DATABASE_PASSWORD, SP_DATABASE_DBNAME and SP_DATABASE_SSLMODE.")
}
