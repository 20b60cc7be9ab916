package load

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"slices"
	"strconv"
	"strings"
)

// Directive marks the struct types a builder is generated for when no type
// names are requested explicitly.
const Directive = "//stagebuild:builder"

// Options configures the Go source extractors.
type Options struct {
	// Types selects records by name. When empty, every struct type whose
	// doc comment carries the Directive is selected.
	Types []string
	// RuntimePkg is the import path of the runtime package whose Scope and
	// Within constraints mark scope parameters. Defaults to DefaultRuntimePkg.
	RuntimePkg string
	// BuildFlags are passed to the build system by LoadPackage.
	BuildFlags []string
}

// ParseFile extracts the selected records declared in a Go source file.
func ParseFile(path string, opts Options) ([]*Schema, error) {
	return ParseSource(path, nil, opts)
}

// ParseSource extracts the selected records declared in a Go source file.
// If src is nil the file is read from filename, otherwise src is parsed as
// described by go/parser.ParseFile.
//
// A record that cannot be extracted does not prevent the others from being
// returned; its error is joined into the returned error.
func ParseSource(filename string, src any, opts Options) ([]*Schema, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	x := newExtractor(fset, opts, nil)
	x.declare(file)
	schemas, err := x.extract(file, filename)
	return schemas, errors.Join(err, x.unknown())
}

// extractor turns struct type declarations into schemas.
type extractor struct {
	fset  *token.FileSet
	opts  Options
	names func(path string) string
	scope []string
	found map[string]bool
}

func newExtractor(fset *token.FileSet, opts Options, names func(string) string) *extractor {
	if opts.RuntimePkg == "" {
		opts.RuntimePkg = DefaultRuntimePkg
	}
	if names == nil {
		names = PackageName
	}
	return &extractor{
		fset:  fset,
		opts:  opts,
		names: names,
		found: make(map[string]bool),
	}
}

// declare records the package-level identifiers of the given files.
// Generated files are skipped, they hold the output of previous runs.
func (x *extractor) declare(files ...*ast.File) {
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "_" || name == "init" {
			return
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			x.scope = append(x.scope, name)
		}
	}
	for _, file := range files {
		if ast.IsGenerated(file) {
			continue
		}
		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if decl.Recv == nil {
					add(decl.Name.Name)
				}
			case *ast.GenDecl:
				for _, spec := range decl.Specs {
					switch spec := spec.(type) {
					case *ast.TypeSpec:
						add(spec.Name.Name)
					case *ast.ValueSpec:
						for _, n := range spec.Names {
							add(n.Name)
						}
					}
				}
			}
		}
	}
	slices.Sort(x.scope)
}

// extract returns the schemas of the selected records declared in file.
func (x *extractor) extract(file *ast.File, filename string) ([]*Schema, error) {
	imports := x.imports(file)
	var (
		schemas []*Schema
		errs    []error
	)
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && !gd.Lparen.IsValid() {
				doc = gd.Doc
			}
			if !x.selected(ts.Name.Name, doc) {
				continue
			}
			x.found[ts.Name.Name] = true
			s, err := x.schema(file, ts, imports)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			s.Source = filename
			schemas = append(schemas, s)
		}
	}
	return schemas, errors.Join(errs...)
}

func (x *extractor) selected(name string, doc *ast.CommentGroup) bool {
	if len(x.opts.Types) > 0 {
		return slices.Contains(x.opts.Types, name)
	}
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == Directive {
			return true
		}
	}
	return false
}

// unknown reports the requested type names that were not declared.
func (x *extractor) unknown() error {
	var errs []error
	for _, name := range x.opts.Types {
		if !x.found[name] {
			errs = append(errs, NewShapeError(ErrUnknownType, name, "", "", "no such type declared"))
		}
	}
	return errors.Join(errs...)
}

func (x *extractor) schema(file *ast.File, ts *ast.TypeSpec, imports []*Import) (*Schema, error) {
	name := ts.Name.Name
	s := &Schema{
		Kind:    "struct",
		Name:    name,
		Package: file.Name.Name,
		Imports: imports,
		Scope:   slices.Clone(x.scope),
		Pos:     x.pos(ts.Pos()),
	}
	if ts.Assign.IsValid() {
		return nil, NewShapeError(ErrUnsupportedShape, name, "", s.Pos, "type aliases are not supported")
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, NewShapeError(ErrUnsupportedShape, name, "", s.Pos, fmt.Sprintf("%s is not a struct", describe(ts.Type)))
	}
	rt := x.runtimeName(imports)
	if ts.TypeParams != nil {
		for _, fl := range ts.TypeParams.List {
			for _, n := range fl.Names {
				p := x.param(n.Name, fl.Type, rt)
				p.Pos = x.pos(n.Pos())
				s.Params = append(s.Params, p)
			}
		}
	}
	for _, fl := range st.Fields.List {
		typ := x.source(fl.Type)
		if len(fl.Names) == 0 {
			return nil, NewShapeError(ErrUnsupportedFieldShape, name, typ, x.pos(fl.Pos()), "only named fields are supported")
		}
		doc := docLines(fl.Doc)
		for _, n := range fl.Names {
			s.Fields = append(s.Fields, &Field{
				Name: n.Name,
				Type: typ,
				Doc:  slices.Clone(doc),
				Pos:  x.pos(n.Pos()),
			})
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// param classifies a type parameter. Parameters constrained by the runtime
// package's Scope or Within[Outer] are scope parameters.
func (x *extractor) param(name string, constraint ast.Expr, rt string) *Param {
	switch c := constraint.(type) {
	case *ast.SelectorExpr:
		if isIdent(c.X, rt) && c.Sel.Name == "Scope" {
			return &Param{Name: name, Scope: true}
		}
	case *ast.IndexExpr:
		sel, ok := c.X.(*ast.SelectorExpr)
		if !ok || !isIdent(sel.X, rt) || sel.Sel.Name != "Within" {
			break
		}
		if outer, ok := c.Index.(*ast.Ident); ok {
			return &Param{Name: name, Scope: true, Within: outer.Name}
		}
	}
	return &Param{Name: name, Constraint: x.source(constraint)}
}

func (x *extractor) imports(file *ast.File) []*Import {
	var imports []*Import
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		var name string
		switch {
		case spec.Name == nil:
			name = x.names(path)
		case spec.Name.Name == "_" || spec.Name.Name == ".":
			continue
		default:
			name = spec.Name.Name
		}
		imports = append(imports, &Import{Name: name, Path: path})
	}
	return imports
}

// runtimeName returns the local name of the runtime package, or "".
func (x *extractor) runtimeName(imports []*Import) string {
	for _, im := range imports {
		if im.Path == x.opts.RuntimePkg {
			return im.Name
		}
	}
	return ""
}

func (x *extractor) source(expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, x.fset, expr); err != nil {
		return ""
	}
	return buf.String()
}

func (x *extractor) pos(p token.Pos) string {
	return x.fset.Position(p).String()
}

// docLines returns the comments of a group as written, markers included, so
// that they can be emitted unchanged. Directives are not documentation and
// are dropped.
func docLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	var lines []string
	for _, c := range cg.List {
		if text, ok := strings.CutPrefix(c.Text, "//"); ok && isDirective(text) {
			continue
		}
		lines = append(lines, c.Text)
	}
	return lines
}

// isDirective reports whether c (a line comment without its "//" marker) is
// a tool directive such as "go:generate" or "nolint".
func isDirective(c string) bool {
	for _, prefix := range []string{"line ", "extern ", "export ", "nolint"} {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	colon := strings.Index(c, ":")
	if colon <= 0 || colon+1 >= len(c) {
		return false
	}
	for i := 0; i <= colon+1; i++ {
		if i == colon {
			continue
		}
		b := c[i]
		if !('a' <= b && b <= 'z' || '0' <= b && b <= '9') {
			return false
		}
	}
	return true
}

func isIdent(expr ast.Expr, name string) bool {
	id, ok := expr.(*ast.Ident)
	return ok && name != "" && id.Name == name
}

func describe(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.InterfaceType:
		return "interface type"
	case *ast.FuncType:
		return "function type"
	case *ast.MapType:
		return "map type"
	case *ast.ArrayType:
		return "array or slice type"
	case *ast.ChanType:
		return "channel type"
	case *ast.StarExpr:
		return "pointer type"
	default:
		return "named type"
	}
}
