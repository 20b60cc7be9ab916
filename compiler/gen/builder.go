package gen

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
)

// genBuilder emits the builder type. Its type parameters are the scope
// parameters, one flag per field in field order and the type parameters of
// the record. Its members are one slot per field.
func genBuilder(f *jen.File, r *Record) {
	n := r.Names
	comment(f,
		fmt.Sprintf("%s is a staged builder of %s. Every field is set exactly once", n.Builder, n.Record),
		fmt.Sprintf("with its setter function; %s only accepts a builder whose fields are", n.Finalizer),
		"all set. Both rules are enforced by the compiler.",
	)
	f.Type().Add(withTypes(jen.Id(n.Builder), r.paramDecls(true, -1))).StructFunc(func(grp *jen.Group) {
		for _, fd := range r.Fields {
			grp.Id(fd.Slot).Add(r.rt("Slot")).Types(fd.Type)
		}
	})
}

// genConstructor emits the constructor returning the builder with every flag
// unset and every slot empty.
func genConstructor(f *jen.File, r *Record) {
	n := r.Names
	empty := r.builderType(r.all("Unset"))
	f.Line()
	comment(f, fmt.Sprintf("%s returns a %s with no field set.", n.Constructor, n.Builder))
	f.Func().Add(withTypes(jen.Id(n.Constructor), r.paramDecls(false, -1))).Params().Add(empty).Block(
		jen.Return(r.builderType(r.all("Unset")).Values()),
	)
}

// comment emits documentation lines. Lines that already are comments are
// written unchanged; plain text becomes a line comment.
func comment(f *jen.File, lines ...string) {
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "//"), strings.HasPrefix(line, "/*"):
			f.Comment(line)
		case strings.TrimSpace(line) == "":
			f.Comment("//")
		default:
			f.Comment("// " + line)
		}
	}
}

// literal returns a keyed composite literal with one element per line, in
// the given order.
func literal(typ *jen.Statement, keys []string, values []jen.Code) *jen.Statement {
	if len(keys) == 0 {
		return typ.Values()
	}
	return typ.ValuesFunc(func(grp *jen.Group) {
		for i, key := range keys {
			grp.Line().Id(key).Op(":").Add(values[i])
		}
		grp.Line()
	})
}
