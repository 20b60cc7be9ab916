package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/dave/jennifer/jen"
)

// TypeExpr converts the text of a Go type or constraint expression into
// jennifer code. Package selectors are looked up in imports (local name to
// import path) and rendered qualified, so the generated file imports them.
// Selectors of unknown packages are rendered verbatim.
func TypeExpr(src string, imports map[string]string) (jen.Code, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", src, err)
	}
	c := &converter{imports: imports}
	code, err := c.expr(expr)
	if err != nil {
		return nil, fmt.Errorf("convert type %q: %w", src, err)
	}
	return code, nil
}

type converter struct {
	imports map[string]string
}

func (c *converter) expr(expr ast.Expr) (*jen.Statement, error) {
	switch x := expr.(type) {
	case *ast.Ident:
		return jen.Id(x.Name), nil
	case *ast.BasicLit:
		return jen.Id(x.Value), nil
	case *ast.SelectorExpr:
		pkg, ok := x.X.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("unsupported selector %T", x.X)
		}
		if path, ok := c.imports[pkg.Name]; ok {
			return jen.Qual(path, x.Sel.Name), nil
		}
		return jen.Id(pkg.Name).Dot(x.Sel.Name), nil
	case *ast.StarExpr:
		return c.prefix(jen.Op("*"), x.X)
	case *ast.ParenExpr:
		inner, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Parens(inner), nil
	case *ast.Ellipsis:
		return c.prefix(jen.Op("..."), x.Elt)
	case *ast.UnaryExpr:
		if x.Op != token.TILDE {
			return nil, fmt.Errorf("unsupported operator %s", x.Op)
		}
		return c.prefix(jen.Op("~"), x.X)
	case *ast.BinaryExpr:
		if x.Op != token.OR {
			return nil, fmt.Errorf("unsupported operator %s", x.Op)
		}
		terms, err := c.union(x, nil)
		if err != nil {
			return nil, err
		}
		return jen.Union(terms...), nil
	case *ast.ArrayType:
		switch n := x.Len.(type) {
		case nil:
			return c.prefix(jen.Index(), x.Elt)
		case *ast.Ellipsis:
			return c.prefix(jen.Index(jen.Op("...")), x.Elt)
		default:
			size, err := c.expr(n)
			if err != nil {
				return nil, err
			}
			return c.prefix(jen.Index(size), x.Elt)
		}
	case *ast.MapType:
		key, err := c.expr(x.Key)
		if err != nil {
			return nil, err
		}
		return c.prefix(jen.Map(key), x.Value)
	case *ast.ChanType:
		var ch *jen.Statement
		switch x.Dir {
		case ast.SEND:
			ch = jen.Chan().Op("<-")
		case ast.RECV:
			ch = jen.Op("<-").Chan()
		default:
			ch = jen.Chan()
		}
		return c.prefix(ch, x.Value)
	case *ast.FuncType:
		return c.signature(jen.Func(), x)
	case *ast.InterfaceType:
		var elems []jen.Code
		for _, m := range x.Methods.List {
			if len(m.Names) == 0 {
				elem, err := c.expr(m.Type)
				if err != nil {
					return nil, err
				}
				elems = append(elems, elem)
				continue
			}
			sig, ok := m.Type.(*ast.FuncType)
			if !ok {
				return nil, fmt.Errorf("unsupported interface method %s", m.Names[0].Name)
			}
			elem, err := c.signature(jen.Id(m.Names[0].Name), sig)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return jen.Interface(elems...), nil
	case *ast.StructType:
		var fields []jen.Code
		for _, fl := range x.Fields.List {
			typ, err := c.expr(fl.Type)
			if err != nil {
				return nil, err
			}
			names := fl.Names
			if len(names) == 0 {
				names = []*ast.Ident{nil}
			}
			for _, n := range names {
				field := jen.Add(typ)
				if n != nil {
					field = jen.Id(n.Name).Add(typ)
				}
				if fl.Tag != nil {
					field.Op(fl.Tag.Value)
				}
				fields = append(fields, field)
			}
		}
		return jen.Struct(fields...), nil
	case *ast.IndexExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		arg, err := c.expr(x.Index)
		if err != nil {
			return nil, err
		}
		return base.Types(arg), nil
	case *ast.IndexListExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		args, err := c.list(x.Indices)
		if err != nil {
			return nil, err
		}
		return base.Types(args...), nil
	default:
		return nil, fmt.Errorf("unsupported type expression %T", expr)
	}
}

// prefix returns head followed by the conversion of expr.
func (c *converter) prefix(head *jen.Statement, expr ast.Expr) (*jen.Statement, error) {
	tail, err := c.expr(expr)
	if err != nil {
		return nil, err
	}
	return head.Add(tail), nil
}

func (c *converter) list(exprs []ast.Expr) ([]jen.Code, error) {
	codes := make([]jen.Code, 0, len(exprs))
	for _, e := range exprs {
		code, err := c.expr(e)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// union flattens a chain of | terms.
func (c *converter) union(expr ast.Expr, terms []jen.Code) ([]jen.Code, error) {
	if bin, ok := expr.(*ast.BinaryExpr); ok && bin.Op == token.OR {
		terms, err := c.union(bin.X, terms)
		if err != nil {
			return nil, err
		}
		return c.union(bin.Y, terms)
	}
	term, err := c.expr(expr)
	if err != nil {
		return nil, err
	}
	return append(terms, term), nil
}

func (c *converter) signature(head *jen.Statement, fn *ast.FuncType) (*jen.Statement, error) {
	params, err := c.fields(fn.Params)
	if err != nil {
		return nil, err
	}
	results, err := c.fields(fn.Results)
	if err != nil {
		return nil, err
	}
	head.Params(params...)
	switch {
	case len(results) == 0:
	case len(results) == 1 && len(fn.Results.List[0].Names) == 0:
		head.Add(results[0])
	default:
		head.Params(results...)
	}
	return head, nil
}

func (c *converter) fields(list *ast.FieldList) ([]jen.Code, error) {
	if list == nil {
		return nil, nil
	}
	var codes []jen.Code
	for _, fl := range list.List {
		typ, err := c.expr(fl.Type)
		if err != nil {
			return nil, err
		}
		if len(fl.Names) == 0 {
			codes = append(codes, typ)
			continue
		}
		for _, n := range fl.Names {
			codes = append(codes, jen.Id(n.Name).Add(typ))
		}
	}
	return codes, nil
}
