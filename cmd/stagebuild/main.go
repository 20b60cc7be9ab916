// stagebuild generates staged builders for struct types.
//
// Usage:
//
//	//go:generate stagebuild -type Point
//
// Without arguments it reads $GOFILE, the file carrying the go:generate
// directive. The input may also be a package pattern or a schema document:
//
//	stagebuild [-type A,B] [-mode static|checked] [-config file] [-output dir] [-watch] [-v] [file.go|package]
//	stagebuild -schema records.yaml [-mode static|checked] [-output dir]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/syssam/stagebuild/compiler/gen"
	"github.com/syssam/stagebuild/compiler/load"
	"github.com/syssam/stagebuild/compiler/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// options are the parsed command line.
type options struct {
	types   []string
	schema  string
	mode    string
	config  string
	output  string
	watch   bool
	verbose bool
	input   string
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config(opts, logger)
	if err != nil {
		_ = writef(stderr, "stagebuild: %v\n", err)
		return 2
	}
	g := gen.NewGenerator(cfg)
	generate := func(ctx context.Context) error {
		schemas, err := loadSchemas(ctx, opts, cfg)
		if len(schemas) > 0 {
			err = errors.Join(err, g.Generate(ctx, opts.output, schemas...))
		}
		return err
	}

	if opts.watch {
		w := &watch.Watcher{Paths: []string{watchPath(opts)}, Logger: logger}
		if err := w.Run(ctx, generate); err != nil {
			_ = writef(stderr, "stagebuild: %v\n", err)
			return 1
		}
		return 0
	}
	if err := generate(ctx); err != nil {
		_ = writef(stderr, "stagebuild: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("stagebuild", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		opts  options
		types string
	)
	fs.StringVar(&types, "type", "", "comma-separated list of type names; defaults to types marked "+load.Directive)
	fs.StringVar(&opts.schema, "schema", "", "read records from a YAML or JSON schema document")
	fs.StringVar(&opts.mode, "mode", "", "enforcement of the builder protocol: static or checked")
	fs.StringVar(&opts.config, "config", "", "YAML configuration file")
	fs.StringVar(&opts.output, "output", "", "output directory; defaults to the directory of each record")
	fs.BoolVar(&opts.watch, "watch", false, "regenerate whenever the input changes")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		_ = writef(stderr, "Usage: stagebuild [flags] [file.go|package]\n\n")
		_ = writeln(stderr, "Generates staged builders for struct types.")
		_ = writeln(stderr)
		_ = writeln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			opts.types = append(opts.types, t)
		}
	}

	switch rest := fs.Args(); {
	case len(rest) > 1:
		return nil, usage(fs, stderr, "at most one input is allowed")
	case len(rest) == 1 && opts.schema != "":
		return nil, usage(fs, stderr, "-schema cannot be combined with an input")
	case len(rest) == 1:
		opts.input = rest[0]
	case opts.schema != "":
		opts.input = opts.schema
	default:
		opts.input = os.Getenv("GOFILE")
	}
	if opts.input == "" {
		return nil, usage(fs, stderr, "no input; run under go generate or name a file or package")
	}
	return &opts, nil
}

func usage(fs *flag.FlagSet, stderr io.Writer, msg string) error {
	_ = writef(stderr, "error: %s\n", msg)
	fs.Usage()
	return errors.New(msg)
}

// config assembles the generator configuration: defaults or the config
// file, then the command line.
func config(opts *options, logger *slog.Logger) (*gen.Config, error) {
	flags := []gen.Option{gen.WithLogger(logger)}
	if opts.mode != "" {
		flags = append(flags, gen.WithMode(gen.Mode(opts.mode)))
	}
	if opts.config != "" {
		return gen.LoadConfigFile(opts.config, flags...)
	}
	return gen.NewConfig(flags...)
}

// loadSchemas reads the records of the input. A Go file is parsed on its own,
// a schema document is decoded and anything else is loaded as a package.
func loadSchemas(ctx context.Context, opts *options, cfg *gen.Config) ([]*load.Schema, error) {
	lopts := load.Options{Types: opts.types, RuntimePkg: cfg.RuntimePkg}
	switch filepath.Ext(opts.input) {
	case ".go":
		return load.ParseFile(opts.input, lopts)
	case ".yaml", ".yml", ".json":
		schemas, err := load.ReadSchemaFile(opts.input)
		return selectSchemas(schemas, opts.types, opts.input, err)
	default:
		return load.LoadPackage(ctx, opts.input, lopts)
	}
}

// selectSchemas keeps the documents named by types, or all of them.
func selectSchemas(schemas []*load.Schema, types []string, path string, err error) ([]*load.Schema, error) {
	if len(types) == 0 {
		return schemas, err
	}
	var selected []*load.Schema
	errs := []error{err}
	for _, s := range schemas {
		if slices.Contains(types, s.Name) {
			selected = append(selected, s)
		}
	}
	for _, name := range types {
		if !slices.ContainsFunc(selected, func(s *load.Schema) bool { return s.Name == name }) {
			errs = append(errs, load.NewShapeError(load.ErrUnknownType, name, "", path, "no such record in schema document"))
		}
	}
	return selected, errors.Join(errs...)
}

// watchPath returns the path watched for an input: the file itself, or the
// directory of a package pattern.
func watchPath(opts *options) string {
	switch filepath.Ext(opts.input) {
	case ".go", ".yaml", ".yml", ".json":
		return opts.input
	}
	dir := strings.TrimSuffix(opts.input, "/...")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return "."
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
