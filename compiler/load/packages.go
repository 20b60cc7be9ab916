package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"

	"golang.org/x/tools/go/packages"
)

// LoadPackage loads the packages matching pattern and extracts the selected
// records from their Go files. Unlike ParseFile, the local names of imports
// are resolved by the type checker instead of being guessed from the path.
//
// Type errors are ignored: the package may refer to builders that were not
// generated yet.
func LoadPackage(ctx context.Context, pattern string, opts Options) ([]*Schema, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes,
		BuildFlags: opts.BuildFlags,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading package %s: %w", pattern, err)
	}
	var (
		schemas []*Schema
		errs    []error
		found   = make(map[string]bool)
	)
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind != packages.TypeError {
				errs = append(errs, e)
			}
		}
		names := make(map[string]string)
		if pkg.Types != nil {
			for _, imp := range pkg.Types.Imports() {
				names[imp.Path()] = imp.Name()
			}
		}
		x := newExtractor(pkg.Fset, opts, func(path string) string {
			if name, ok := names[path]; ok {
				return name
			}
			return PackageName(path)
		})
		x.found = found
		x.declare(pkg.Syntax...)
		for _, file := range pkg.Syntax {
			if ast.IsGenerated(file) {
				continue
			}
			ss, err := x.extract(file, pkg.Fset.Position(file.Package).Filename)
			if err != nil {
				errs = append(errs, err)
			}
			schemas = append(schemas, ss...)
		}
	}
	if len(pkgs) > 0 {
		x := newExtractor(nil, opts, nil)
		x.found = found
		errs = append(errs, x.unknown())
	}
	return schemas, errors.Join(errs...)
}
