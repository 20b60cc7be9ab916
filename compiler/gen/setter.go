package gen

import (
	"github.com/dave/jennifer/jen"
)

// genSetters emits one setter function per field. The setter of field i is
// generic over every flag but its own: its builder parameter has flag i
// fixed to Unset and its result has it fixed to Set, so it cannot be called
// twice on the same chain of builders.
func genSetters(f *jen.File, r *Record) {
	for _, fd := range r.Fields {
		before := r.builderType(func(o *Field) jen.Code {
			if o.Index == fd.Index {
				return r.rt("Unset")
			}
			return flagOf(o)
		})
		after := func() *jen.Statement {
			return r.builderType(func(o *Field) jen.Code {
				if o.Index == fd.Index {
					return r.rt("Set")
				}
				return flagOf(o)
			})
		}
		keys := make([]string, 0, len(r.Fields))
		values := make([]jen.Code, 0, len(r.Fields))
		for _, o := range r.Fields {
			keys = append(keys, o.Slot)
			if o.Index == fd.Index {
				values = append(values, r.rt("Fill").Call(jen.Id(valueParam)))
			} else {
				values = append(values, jen.Id(builderParam).Dot(o.Slot))
			}
		}
		f.Line()
		comment(f, fd.Doc...)
		f.Func().Add(withTypes(jen.Id(fd.Setter), r.paramDecls(true, fd.Index))).Params(
			jen.Id(builderParam).Add(before),
			jen.Id(valueParam).Add(fd.Type),
		).Add(after()).Block(
			jen.Return(literal(after(), keys, values)),
		)
	}
}
