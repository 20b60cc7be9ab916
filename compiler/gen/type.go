package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/stagebuild/compiler/load"
)

type (
	// Record is the emission model of one record: its schema together with
	// the synthesized names and the translated type expressions.
	Record struct {
		Schema     *load.Schema
		Names      *Names
		Mode       Mode
		RuntimePkg string
		// Params in declaration order.
		Params []*Param
		Fields []*Field
	}

	// Param is a generic parameter of the record and of its builder.
	Param struct {
		Name  string
		Scope bool
		// Constraint with the where-clause of the parameter merged in.
		Constraint jen.Code
	}

	// Field is a record field with its synthesized names.
	Field struct {
		*FieldNames
		Index int
		Type  jen.Code
		Doc   []string
	}
)

// NewRecord creates the emission model of a record. It fails if an
// identifier cannot be synthesized or a type expression cannot be translated.
func NewRecord(cfg *Config, s *load.Schema) (*Record, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	names, err := NewNames(cfg, s)
	if err != nil {
		return nil, err
	}
	r := &Record{
		Schema:     s,
		Names:      names,
		Mode:       cfg.Mode,
		RuntimePkg: cfg.RuntimePkg,
	}
	imports := make(map[string]string, len(s.Imports))
	for _, im := range s.Imports {
		imports[im.Name] = im.Path
	}
	where := make(map[string][]*load.Constraint)
	for _, c := range s.Where {
		if p := s.Param(c.Param); p == nil || p.Scope {
			err := load.NewShapeError(load.ErrUnsupportedShape, s.Name, "", c.Pos, "where-clause must name a type parameter")
			return nil, NewGenerationError("types", s.Name, "", "where-clause for "+c.Param, err)
		}
		where[c.Param] = append(where[c.Param], c)
	}
	for _, p := range s.Params {
		param := &Param{Name: p.Name, Scope: p.Scope}
		switch {
		case p.Within != "":
			param.Constraint = jen.Qual(r.RuntimePkg, "Within").Types(jen.Id(p.Within))
		case p.Scope:
			param.Constraint = jen.Qual(r.RuntimePkg, "Scope")
		default:
			param.Constraint, err = constraint(p, where[p.Name], imports)
			if err != nil {
				return nil, NewGenerationError("types", s.Name, "", "parameter "+p.Name, err)
			}
		}
		r.Params = append(r.Params, param)
	}
	for i, f := range s.Fields {
		typ, err := TypeExpr(f.Type, imports)
		if err != nil {
			return nil, NewGenerationError("types", s.Name, "", "field "+f.Name, err)
		}
		r.Fields = append(r.Fields, &Field{
			FieldNames: names.Fields[i],
			Index:      i,
			Type:       typ,
			Doc:        f.Doc,
		})
	}
	return r, nil
}

// constraint returns the constraint of a type parameter. Go has no
// where-clauses: extra constraints are intersected with the declared one.
func constraint(p *load.Param, where []*load.Constraint, imports map[string]string) (jen.Code, error) {
	var elems []jen.Code
	if p.Constraint != "" {
		base, err := TypeExpr(p.Constraint, imports)
		if err != nil {
			return nil, err
		}
		elems = append(elems, base)
	}
	for _, c := range where {
		extra, err := TypeExpr(c.Expr, imports)
		if err != nil {
			return nil, err
		}
		elems = append(elems, extra)
	}
	switch len(elems) {
	case 0:
		return jen.Any(), nil
	case 1:
		return elems[0], nil
	default:
		return jen.Interface(elems...), nil
	}
}

// ScopeParams returns the scope parameters in declaration order.
func (r *Record) ScopeParams() []*Param {
	var ps []*Param
	for _, p := range r.Params {
		if p.Scope {
			ps = append(ps, p)
		}
	}
	return ps
}

// TypeParams returns the type parameters in declaration order.
func (r *Record) TypeParams() []*Param {
	var ps []*Param
	for _, p := range r.Params {
		if !p.Scope {
			ps = append(ps, p)
		}
	}
	return ps
}

// rt returns a qualified identifier of the runtime package.
func (r *Record) rt(name string) *jen.Statement {
	return jen.Qual(r.RuntimePkg, name)
}

// paramDecls declares the record parameters for a function: scope parameters
// first, then type parameters, with flags (if any) in between. The flag of
// the field at index skip is left out.
func (r *Record) paramDecls(flags bool, skip int) []jen.Code {
	var decls []jen.Code
	for _, p := range r.ScopeParams() {
		decls = append(decls, jen.Id(p.Name).Add(p.Constraint))
	}
	if flags {
		for _, f := range r.Fields {
			if f.Index != skip {
				decls = append(decls, jen.Id(f.Flag).Add(r.rt("Flag")))
			}
		}
	}
	for _, p := range r.TypeParams() {
		decls = append(decls, jen.Id(p.Name).Add(p.Constraint))
	}
	return decls
}

// builderType instantiates the builder. The flag argument of every field is
// given by flag; in checked mode the builder has no flags.
func (r *Record) builderType(flag func(*Field) jen.Code) *jen.Statement {
	var args []jen.Code
	for _, p := range r.ScopeParams() {
		args = append(args, jen.Id(p.Name))
	}
	if r.Mode != ModeChecked {
		for _, f := range r.Fields {
			args = append(args, flag(f))
		}
	}
	for _, p := range r.TypeParams() {
		args = append(args, jen.Id(p.Name))
	}
	return withTypes(jen.Id(r.Names.Builder), args)
}

// recordType instantiates the record with its parameters in declaration order.
func (r *Record) recordType() *jen.Statement {
	var args []jen.Code
	for _, p := range r.Params {
		args = append(args, jen.Id(p.Name))
	}
	return withTypes(jen.Id(r.Names.Record), args)
}

// flagOf returns the flag type parameter of a field.
func flagOf(f *Field) jen.Code {
	return jen.Id(f.Flag)
}

// all returns a flag function instantiating every flag with the given
// runtime type.
func (r *Record) all(state string) func(*Field) jen.Code {
	return func(*Field) jen.Code {
		return r.rt(state)
	}
}

func withTypes(s *jen.Statement, types []jen.Code) *jen.Statement {
	if len(types) == 0 {
		return s
	}
	return s.Types(types...)
}
