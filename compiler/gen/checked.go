package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

// genChecked emits the runtime-checked variant of the builder: setter
// methods named after the fields and a Build method that reports unset and
// re-set fields as errors. Every method has a value receiver and returns an
// updated copy, so a handle taken before a call is never affected by it.
func genChecked(f *jen.File, r *Record) {
	n := r.Names
	if len(r.Fields) > 0 {
		f.Comment(fmt.Sprintf("// Indexes of the fields of %s in the progress of %s.", n.Record, n.Builder))
		f.Const().DefsFunc(func(grp *jen.Group) {
			for i, fd := range r.Fields {
				if i == 0 {
					grp.Id(fd.Const).Op("=").Iota()
				} else {
					grp.Id(fd.Const)
				}
			}
		})
		f.Line()
	}
	comment(f,
		fmt.Sprintf("%s builds a %s. Every field is set exactly once with the method", n.Builder, n.Record),
		"of the same name. Misuse is reported by Build at run time.",
	)
	f.Type().Add(withTypes(jen.Id(n.Builder), r.paramDecls(false, -1))).StructFunc(func(grp *jen.Group) {
		for _, fd := range r.Fields {
			grp.Id(fd.Slot).Add(r.rt("Slot")).Types(fd.Type)
		}
		grp.Id(progressName).Add(r.rt("Progress"))
	})

	f.Line()
	comment(f, fmt.Sprintf("%s returns a %s with no field set.", n.Constructor, n.Builder))
	f.Func().Add(withTypes(jen.Id(n.Constructor), r.paramDecls(false, -1))).Params().Add(r.builderType(nil)).Block(
		jen.Return(r.builderType(nil).Values()),
	)

	recv := func() *jen.Statement {
		return jen.Id(builderParam).Add(r.receiverType())
	}
	for _, fd := range r.Fields {
		f.Line()
		comment(f, fd.Doc...)
		f.Func().Params(recv()).Id(fd.Setter).Params(jen.Id(valueParam).Add(fd.Type)).Add(r.receiverType()).Block(
			jen.List(jen.Id("p"), jen.Id("ok")).Op(":=").Id(builderParam).Dot(progressName).Dot("Mark").Call(
				jen.Lit(n.Record), jen.Lit(fd.Field), jen.Id(fd.Const),
			),
			jen.If(jen.Id("ok")).Block(
				jen.Id(builderParam).Dot(fd.Slot).Op("=").Add(r.rt("Fill")).Call(jen.Id(valueParam)),
			),
			jen.Id(builderParam).Dot(progressName).Op("=").Id("p"),
			jen.Return(jen.Id(builderParam)),
		)
	}

	fields := []jen.Code{jen.Lit(n.Record)}
	keys := make([]string, 0, len(r.Fields))
	values := make([]jen.Code, 0, len(r.Fields))
	for _, fd := range r.Fields {
		fields = append(fields, jen.Lit(fd.Field))
		keys = append(keys, fd.Field)
		values = append(values, jen.Id(builderParam).Dot(fd.Slot).Dot("Take").Call())
	}
	f.Line()
	comment(f,
		fmt.Sprintf("%s returns the %s once every field has been set exactly once.", buildMethod, n.Record),
		"Otherwise it returns the joined stagebuild.FieldError of every unset or",
		"re-set field.",
	)
	f.Func().Params(recv()).Id(buildMethod).Params().Params(r.recordType(), jen.Error()).Block(
		jen.If(
			jen.Err().Op(":=").Id(builderParam).Dot(progressName).Dot("Check").Call(fields...),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Return(r.recordType().Values(), jen.Err()),
		),
		jen.Return(literal(r.recordType(), keys, values), jen.Nil()),
	)
}

// receiverType returns the builder instantiated with its own parameter
// names, as written in method receivers.
func (r *Record) receiverType() *jen.Statement {
	return r.builderType(nil)
}
