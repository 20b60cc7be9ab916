package gen

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stagebuild/compiler/load"
)

// runtimeImporter type-checks the runtime package from the sources of this
// module and everything else from GOROOT.
type runtimeImporter struct {
	fset     *token.FileSet
	fallback types.Importer
	runtime  *types.Package
}

func newRuntimeImporter(fset *token.FileSet) *runtimeImporter {
	return &runtimeImporter{fset: fset, fallback: importer.ForCompiler(fset, "source", nil)}
}

func (im *runtimeImporter) Import(path string) (*types.Package, error) {
	if path != load.DefaultRuntimePkg {
		return im.fallback.Import(path)
	}
	if im.runtime != nil {
		return im.runtime, nil
	}
	paths, err := filepath.Glob(filepath.Join("..", "..", "*.go"))
	if err != nil {
		return nil, err
	}
	var files []*ast.File
	for _, p := range paths {
		if strings.HasSuffix(p, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(im.fset, p, nil, 0)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	conf := types.Config{Importer: im.fallback}
	pkg, err := conf.Check(path, im.fset, files, nil)
	if err != nil {
		return nil, err
	}
	im.runtime = pkg
	return pkg, nil
}

// compile generates the builders of the records declared in src and
// type-checks them together with use, the body of a file of the same
// package.
func compile(t *testing.T, cfg *Config, src, use string) error {
	t.Helper()
	schemas, err := load.ParseSource("records.go", src, load.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, schemas)

	fset := token.NewFileSet()
	parse := func(name, content string) *ast.File {
		f, err := parser.ParseFile(fset, name, content, parser.ParseComments)
		require.NoError(t, err, content)
		return f
	}
	files := []*ast.File{parse("records.go", src)}
	g := NewGenerator(cfg)
	for _, s := range schemas {
		out, err := g.Render(s)
		require.NoError(t, err)
		files = append(files, parse(Filename(s), string(out)))
	}
	files = append(files, parse("use.go", "package "+schemas[0].Package+"\n\n"+use))

	var errs []string
	conf := types.Config{
		Importer: newRuntimeImporter(fset),
		Error: func(err error) {
			errs = append(errs, err.Error())
		},
	}
	if _, err := conf.Check("example.com/"+schemas[0].Package, fset, files, nil); err != nil {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}

const tripleSrc = `package geo

//stagebuild:builder
type Triple struct {
	A int
	B string
	C []float64
}
`

func TestCompileStatic(t *testing.T) {
	if testing.Short() {
		t.Skip("type-checks the standard library from source")
	}
	setters := map[string]string{
		"A": "TripleBuilderA(%s, 1)",
		"B": `TripleBuilderB(%s, "b")`,
		"C": "TripleBuilderC(%s, nil)",
	}
	chain := func(fields ...string) string {
		expr := "NewTripleBuilder()"
		for _, f := range fields {
			expr = fmt.Sprintf(setters[f], expr)
		}
		return expr
	}
	build := func(fields ...string) string {
		return fmt.Sprintf("func use() Triple {\n\treturn BuildTriple(%s)\n}\n", chain(fields...))
	}

	t.Run("every order", func(t *testing.T) {
		for _, order := range [][]string{
			{"A", "B", "C"}, {"A", "C", "B"}, {"B", "A", "C"},
			{"B", "C", "A"}, {"C", "A", "B"}, {"C", "B", "A"},
		} {
			t.Run(strings.Join(order, ""), func(t *testing.T) {
				assert.NoError(t, compile(t, nil, tripleSrc, build(order...)))
			})
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, subset := range [][]string{
			{}, {"A"}, {"B"}, {"C"}, {"A", "B"}, {"A", "C"}, {"B", "C"},
		} {
			t.Run("set"+strings.Join(subset, ""), func(t *testing.T) {
				err := compile(t, nil, tripleSrc, build(subset...))
				require.Error(t, err)
				assert.Contains(t, err.Error(), "BuildTriple")
			})
		}
	})

	t.Run("field set twice", func(t *testing.T) {
		for _, chain := range [][]string{
			{"A", "A"}, {"A", "B", "A"}, {"C", "A", "B", "C"},
		} {
			t.Run(strings.Join(chain, ""), func(t *testing.T) {
				assert.Error(t, compile(t, nil, tripleSrc, build(chain...)))
			})
		}
	})

	t.Run("wrong value type", func(t *testing.T) {
		use := "func use() Triple {\n\treturn BuildTriple(TripleBuilderC(TripleBuilderB(TripleBuilderA(NewTripleBuilder(), \"a\"), \"b\"), nil))\n}\n"
		assert.Error(t, compile(t, nil, tripleSrc, use))
	})

	t.Run("handles can be reused", func(t *testing.T) {
		use := `func use() (Triple, Triple) {
	common := TripleBuilderB(NewTripleBuilder(), "b")
	x := BuildTriple(TripleBuilderC(TripleBuilderA(common, 1), nil))
	y := BuildTriple(TripleBuilderA(TripleBuilderC(common, []float64{2}), 2))
	return x, y
}
`
		assert.NoError(t, compile(t, nil, tripleSrc, use))
	})
}

func TestCompileScoped(t *testing.T) {
	if testing.Short() {
		t.Skip("type-checks the standard library from source")
	}
	src := `package graph

import (
	"fmt"

	sb "github.com/syssam/stagebuild"
)

//stagebuild:builder
type Node[A sb.Scope, B sb.Within[A], T any, M fmt.Stringer] struct {
	// Value held by the node.
	Value T
	Label M
	Outer sb.Ref[A, T]
	Inner sb.Ref[B, T]
}

//stagebuild:builder
type Empty struct{}

type name string

func (n name) String() string { return string(n) }
`

	t.Run("scoped references", func(t *testing.T) {
		use := `func use(v *int) Node[sb.Root, sb.Nested[sb.Root], int, name] {
	outer := sb.Borrow[sb.Root](v)
	inner := sb.Narrow[sb.Nested[sb.Root]](outer)
	b := NewNodeBuilder[sb.Root, sb.Nested[sb.Root], int, name]()
	return BuildNode(NodeBuilderInner(NodeBuilderLabel(NodeBuilderOuter(NodeBuilderValue(b, 1), outer), "n"), inner))
}

func empty() Empty {
	return BuildEmpty(NewEmptyBuilder())
}
`
		use = "import sb \"github.com/syssam/stagebuild\"\n\n" + use
		assert.NoError(t, compile(t, nil, src, use))
	})

	t.Run("reference of the wrong scope", func(t *testing.T) {
		use := `func use(v *int) Node[sb.Root, sb.Nested[sb.Root], int, name] {
	outer := sb.Borrow[sb.Root](v)
	b := NewNodeBuilder[sb.Root, sb.Nested[sb.Root], int, name]()
	return BuildNode(NodeBuilderInner(NodeBuilderLabel(NodeBuilderOuter(NodeBuilderValue(b, 1), outer), "n"), outer))
}
`
		use = "import sb \"github.com/syssam/stagebuild\"\n\n" + use
		assert.Error(t, compile(t, nil, src, use))
	})

	t.Run("scope outside its container", func(t *testing.T) {
		use := `func use() {
	_ = NewNodeBuilder[sb.Root, sb.Nested[sb.Nested[sb.Root]], int, name]()
}
`
		use = "import sb \"github.com/syssam/stagebuild\"\n\n" + use
		assert.Error(t, compile(t, nil, src, use))
	})
}

func TestCompileChecked(t *testing.T) {
	if testing.Short() {
		t.Skip("type-checks the standard library from source")
	}
	cfg := MustNewConfig(WithMode(ModeChecked))

	t.Run("fluent chain", func(t *testing.T) {
		use := `func use() (Triple, error) {
	return NewTripleBuilder().C(nil).A(1).B("b").Build()
}
`
		assert.NoError(t, compile(t, cfg, tripleSrc, use))
	})

	t.Run("misuse compiles", func(t *testing.T) {
		use := `func use() (Triple, error) {
	return NewTripleBuilder().A(1).A(2).Build()
}
`
		assert.NoError(t, compile(t, cfg, tripleSrc, use))
	})

	t.Run("unexported record", func(t *testing.T) {
		src := "package geo\n\n//stagebuild:builder\ntype pair struct {\n\tkey   string\n\tvalue int\n}\n"
		use := `func use() (pair, error) {
	return newPairBuilder().value(1).key("k").Build()
}
`
		assert.NoError(t, compile(t, cfg, src, use))
	})
}
