package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

// genFinalizer emits the finalizer. It only accepts the builder with every
// flag set, which makes the unchecked reads of the slots safe.
func genFinalizer(f *jen.File, r *Record) {
	n := r.Names
	keys := make([]string, 0, len(r.Fields))
	values := make([]jen.Code, 0, len(r.Fields))
	for _, fd := range r.Fields {
		keys = append(keys, fd.Field)
		values = append(values, jen.Id(builderParam).Dot(fd.Slot).Dot("Take").Call())
	}
	f.Line()
	comment(f, fmt.Sprintf("%s returns the %s assembled by a builder whose fields are all set.", n.Finalizer, n.Record))
	f.Func().Add(withTypes(jen.Id(n.Finalizer), r.paramDecls(false, -1))).Params(
		jen.Id(builderParam).Add(r.builderType(r.all("Set"))),
	).Add(r.recordType()).Block(
		jen.Return(literal(r.recordType(), keys, values)),
	)
}
