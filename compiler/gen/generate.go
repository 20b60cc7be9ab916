package gen

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/stagebuild/compiler/load"
)

// Generator emits staged builders with jennifer.
type Generator struct {
	cfg *Config
	log *slog.Logger
}

// NewGenerator creates a generator. A nil config means the defaults.
//
// Example:
//
//	schemas, err := load.ParseFile("point.go", load.Options{})
//	if err != nil {
//		return err
//	}
//	g := gen.NewGenerator(gen.MustNewConfig(gen.WithMode(gen.ModeChecked)))
//	err = g.Generate(ctx, "", schemas...)
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &Generator{cfg: cfg, log: cfg.logger()}
}

// Config returns the configuration of the generator.
func (g *Generator) Config() *Config {
	return g.cfg
}

// NewFile creates a new jennifer file with the configured header comment.
func (g *Generator) NewFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return f
}

// Emit adds the builder of one record to f: the builder type, its
// constructor, one setter per field and the finalizer. The schema is not
// modified.
func (g *Generator) Emit(f *jen.File, s *load.Schema) error {
	r, err := NewRecord(g.cfg, s)
	if err != nil {
		return err
	}
	g.importNames(f, r)
	if r.Mode == ModeChecked {
		genChecked(f, r)
		return nil
	}
	genBuilder(f, r)
	genConstructor(f, r)
	genSetters(f, r)
	genFinalizer(f, r)
	return nil
}

// importNames registers the local names of the record's imports so the
// generated code refers to packages the way the record does.
func (g *Generator) importNames(f *jen.File, r *Record) {
	seen := false
	for _, im := range r.Schema.Imports {
		if im.Path == r.RuntimePkg {
			seen = true
		}
		if im.Name == load.PackageName(im.Path) {
			f.ImportName(im.Path, im.Name)
		} else {
			f.ImportAlias(im.Path, im.Name)
		}
	}
	if !seen {
		f.ImportName(r.RuntimePkg, r.Names.Runtime)
	}
}

// Render renders the builder of one record into a complete source file.
func (g *Generator) Render(s *load.Schema) ([]byte, error) {
	pkg := g.cfg.Package
	if pkg == "" {
		pkg = s.Package
	}
	if pkg == "" {
		return nil, NewConfigError("Package", nil, "record "+s.Name+" has no package; set WithPackage")
	}
	f := g.NewFile(pkg)
	if err := g.Emit(f, s); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", s.Name, "", "", err)
	}
	if !g.cfg.Format {
		return buf.Bytes(), nil
	}
	src, err := imports.Process(Filename(s), buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		g.log.Debug("unformatted source", "record", s.Name, "src", buf.String())
		return nil, NewGenerationError("format", s.Name, Filename(s), "", err)
	}
	return src, nil
}

// Filename returns the name of the file holding the builder of a record.
func Filename(s *load.Schema) string {
	return snake(s.Name) + "_builder.go"
}

// task is the generation of one record into one file.
type task struct {
	schema *load.Schema
	path   string
	names  *Names
}

// Generate writes the builder of every record into its own file. Files are
// written into dir, or next to the record's source when dir is empty.
// Records are generated in parallel; a failing record produces no file and
// does not prevent the others from being written. All failures are joined
// into the returned error.
func (g *Generator) Generate(ctx context.Context, dir string, schemas ...*load.Schema) error {
	if err := g.cfg.Validate(); err != nil {
		return err
	}
	tasks, errs := g.plan(dir, schemas)
	results := make([]error, len(tasks))
	changed := make([]bool, len(tasks))

	// Record failures are collected in results instead of being returned to
	// the group, so that one failure does not cancel the other records.
	var eg errgroup.Group
	if g.cfg.Workers > 0 {
		eg.SetLimit(g.cfg.Workers)
	}
	for i, t := range tasks {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			changed[i], results[i] = g.generateFile(t)
			return nil
		})
	}
	_ = eg.Wait()

	var written, unchanged, failed int
	for i, err := range results {
		switch {
		case err != nil:
			failed++
			errs = append(errs, err)
		case changed[i]:
			written++
		default:
			unchanged++
		}
	}
	failed += len(schemas) - len(tasks)
	g.log.Info("generated builders", "records", len(schemas), "written", written, "unchanged", unchanged, "failed", failed)
	return errors.Join(errs...)
}

// plan assigns an output file to every record and rejects records whose
// file or package-level identifiers collide with an earlier record of the
// same directory.
func (g *Generator) plan(dir string, schemas []*load.Schema) ([]task, []error) {
	var (
		tasks  []task
		errs   []error
		files  = make(map[string]string)
		idents = make(map[string]map[string]string)
	)
	for _, s := range schemas {
		out := dir
		if out == "" {
			out = filepath.Dir(s.Source)
		}
		path := filepath.Join(out, Filename(s))
		if prev, ok := files[path]; ok {
			errs = append(errs, NewGenerationError("plan", s.Name, path, "output file collides with record "+prev, nil))
			continue
		}
		names, err := NewNames(g.cfg, s)
		if err != nil {
			errs = append(errs, NewGenerationError("names", s.Name, path, "", err))
			continue
		}
		seen := idents[out]
		if seen == nil {
			seen = make(map[string]string)
			idents[out] = seen
		}
		if clash := collision(seen, names); clash != "" {
			err := NewIdentifierError(clash, s.Name, s.Pos, "collides with an identifier generated for record "+seen[clash])
			errs = append(errs, NewGenerationError("names", s.Name, path, "", err))
			continue
		}
		for _, name := range names.PackageLevel() {
			seen[name] = s.Name
		}
		files[path] = s.Name
		tasks = append(tasks, task{schema: s, path: path, names: names})
	}
	return tasks, errs
}

func collision(seen map[string]string, names *Names) string {
	for _, name := range names.PackageLevel() {
		if _, ok := seen[name]; ok {
			return name
		}
	}
	return ""
}

// generateFile renders and writes one record. It reports whether the file
// content changed.
func (g *Generator) generateFile(t task) (bool, error) {
	name := t.schema.Name
	src, err := g.Render(t.schema)
	if err != nil {
		if IsGenerationError(err) {
			return false, err
		}
		return false, NewGenerationError("render", name, t.path, "", err)
	}
	changed, err := writeFile(t.path, src)
	if err != nil {
		return false, NewGenerationError("write", name, t.path, "", err)
	}
	g.log.Debug("generated builder",
		"record", name,
		"file", t.path,
		"mode", g.cfg.Mode,
		"fields", len(t.schema.Fields),
		"changed", changed,
		"identifiers", strings.Join(t.names.PackageLevel(), ","),
	)
	return changed, nil
}
