package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/syssam/stagebuild/compiler/load"
)

// Names holds the identifiers synthesized for one record.
type Names struct {
	Record      string
	Mode        Mode
	Builder     string
	Constructor string
	Finalizer   string
	// Runtime is the local name the runtime package is imported under.
	Runtime string
	Fields  []*FieldNames
}

// FieldNames holds the identifiers synthesized for one field.
type FieldNames struct {
	Field string
	// Flag is the type parameter tracking the field in static mode.
	Flag string
	// Setter is a package-level function in static mode and a method in
	// checked mode.
	Setter string
	// Slot is the builder member holding the value.
	Slot string
	// Const is the package-level index constant of the field in checked mode.
	Const string
	Pos   string
}

// Params of the emitted functions. Record parameters and flags must not
// shadow them.
const (
	builderParam = "b"
	valueParam   = "value"
	progressName = "progress"
	buildMethod  = "Build"
)

// BuilderName returns the name of the builder type of a record.
func BuilderName(record string) (string, error) {
	name := record + "Builder"
	if !token.IsIdentifier(name) {
		return "", NewIdentifierError(name, record, "", "builder name is not an identifier")
	}
	return name, nil
}

// FlagName returns the name of the compile-time flag tracking a field: the
// upper-cased field name followed by "_INIT".
func FlagName(field string) (string, error) {
	name := upperCase(field) + "_INIT"
	if !token.IsIdentifier(name) {
		return "", NewIdentifierError(name, field, "", "flag name is not an identifier")
	}
	return name, nil
}

// NewNames synthesizes the identifiers emitted for a record and checks them
// for collisions with each other, with the record parameters and with the
// package-level identifiers declared next to the record.
func NewNames(cfg *Config, s *load.Schema) (*Names, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	builder, err := BuilderName(s.Name)
	if err != nil {
		return nil, at(err, s.Pos)
	}
	n := &Names{
		Record:  s.Name,
		Mode:    cfg.Mode,
		Builder: builder,
		Runtime: runtimeName(cfg, s),
	}
	if token.IsExported(s.Name) {
		n.Constructor = "New" + builder
		n.Finalizer = "Build" + s.Name
	} else {
		n.Constructor = "new" + upperFirst(builder)
		n.Finalizer = "build" + upperFirst(s.Name)
	}
	for _, f := range s.Fields {
		flag, err := FlagName(f.Name)
		if err != nil {
			return nil, at(err, f.Pos)
		}
		fn := &FieldNames{
			Field: f.Name,
			Flag:  flag,
			Slot:  "_" + f.Name,
			Pos:   posOr(f.Pos, s.Pos),
		}
		if cfg.Mode == ModeChecked {
			fn.Setter = f.Name
			fn.Const = upperCase(s.Name + "_" + f.Name + "_INIT")
			if !token.IsIdentifier(fn.Const) {
				return nil, NewIdentifierError(fn.Const, f.Name, f.Pos, "index constant is not an identifier")
			}
		} else {
			fn.Setter = builder + pascal(f.Name)
		}
		n.Fields = append(n.Fields, fn)
	}
	if err := n.check(cfg, s); err != nil {
		return nil, err
	}
	return n, nil
}

// Field returns the names of the given field, or nil.
func (n *Names) Field(name string) *FieldNames {
	for _, f := range n.Fields {
		if f.Field == name {
			return f
		}
	}
	return nil
}

// PackageLevel returns the package-level identifiers declared by the emitted
// code, in emission order.
func (n *Names) PackageLevel() []string {
	names := []string{n.Builder, n.Constructor}
	for _, f := range n.Fields {
		if n.Mode == ModeChecked {
			names = append(names, f.Const)
		} else {
			names = append(names, f.Setter)
		}
	}
	if n.Mode == ModeChecked {
		return names
	}
	return append(names, n.Finalizer)
}

// declared tracks identifiers of one scope with what declared them.
type declared map[string]string

func (d declared) add(name, source, pos, what string) error {
	if prev, ok := d[name]; ok {
		return NewIdentifierError(name, source, pos, "collides with "+prev)
	}
	d[name] = what
	return nil
}

func (n *Names) check(cfg *Config, s *load.Schema) error {
	pkg := make(declared)
	for _, name := range s.Scope {
		pkg[name] = fmt.Sprintf("package-level identifier %s", name)
	}
	if err := pkg.add(n.Builder, s.Name, s.Pos, "builder type "+n.Builder); err != nil {
		return err
	}
	if err := pkg.add(n.Constructor, s.Name, s.Pos, "constructor "+n.Constructor); err != nil {
		return err
	}
	if cfg.Mode != ModeChecked {
		if err := pkg.add(n.Finalizer, s.Name, s.Pos, "finalizer "+n.Finalizer); err != nil {
			return err
		}
	}
	for _, f := range n.Fields {
		name, what := f.Setter, "setter "+f.Setter
		if cfg.Mode == ModeChecked {
			name, what = f.Const, "index constant "+f.Const
		}
		if err := pkg.add(name, f.Field, f.Pos, what); err != nil {
			return err
		}
	}

	// Type parameters share a scope with the function parameters and shadow
	// the package-level names the emitted bodies refer to.
	local := declared{
		builderParam: "function parameter " + builderParam,
		valueParam:   "function parameter " + valueParam,
		n.Runtime:    "runtime package " + n.Runtime,
	}
	if _, ok := local[n.Builder]; !ok {
		local[n.Builder] = "builder type " + n.Builder
	}
	if _, ok := local[n.Record]; !ok {
		local[n.Record] = "record type " + n.Record
	}
	if cfg.Mode == ModeChecked {
		for _, name := range []string{"p", "ok", "err"} {
			local[name] = "local variable " + name
		}
	}
	for _, p := range s.Params {
		if err := local.add(p.Name, p.Name, posOr(p.Pos, s.Pos), "parameter "+p.Name); err != nil {
			return err
		}
	}
	if cfg.Mode == ModeChecked {
		return n.checkMembers()
	}
	used := referenced(s)
	for _, f := range n.Fields {
		if err := local.add(f.Flag, f.Field, f.Pos, "flag "+f.Flag); err != nil {
			return err
		}
		if used[f.Flag] {
			return NewIdentifierError(f.Flag, f.Field, f.Pos, "shadows an identifier used by the record's types")
		}
	}
	return nil
}

// checkMembers checks the members of a checked builder: slots, setter
// methods, the progress member and the Build method.
func (n *Names) checkMembers() error {
	members := declared{
		progressName: "member " + progressName,
		buildMethod:  "method " + buildMethod,
	}
	for _, f := range n.Fields {
		if err := members.add(f.Slot, f.Field, f.Pos, "member "+f.Slot); err != nil {
			return err
		}
	}
	for _, f := range n.Fields {
		if err := members.add(f.Setter, f.Field, f.Pos, "method "+f.Setter); err != nil {
			return err
		}
	}
	return nil
}

// referenced returns the unqualified identifiers used by the field types and
// constraints of a schema.
func referenced(s *load.Schema) map[string]bool {
	used := make(map[string]bool)
	visit := func(src string) {
		expr, err := parser.ParseExpr(src)
		if err != nil {
			return
		}
		ast.Inspect(expr, func(node ast.Node) bool {
			switch node := node.(type) {
			case *ast.SelectorExpr:
				ast.Inspect(node.X, func(x ast.Node) bool {
					if id, ok := x.(*ast.Ident); ok {
						used[id.Name] = true
					}
					return true
				})
				return false
			case *ast.Ident:
				used[node.Name] = true
			}
			return true
		})
	}
	for _, f := range s.Fields {
		visit(f.Type)
	}
	for _, p := range s.Params {
		if p.Constraint != "" {
			visit(p.Constraint)
		}
	}
	for _, c := range s.Where {
		visit(c.Expr)
	}
	return used
}

// runtimeName returns the local name of the runtime package in the
// generated file: the record's own import name if it imports it.
func runtimeName(cfg *Config, s *load.Schema) string {
	for _, im := range s.Imports {
		if im.Path == cfg.RuntimePkg && im.Name != "" {
			return im.Name
		}
	}
	return load.PackageName(cfg.RuntimePkg)
}

func at(err error, pos string) error {
	if e, ok := err.(*IdentifierError); ok && e.Pos == "" {
		e.Pos = pos
	}
	return err
}

func posOr(pos, fallback string) string {
	if pos != "" {
		return pos
	}
	return fallback
}
