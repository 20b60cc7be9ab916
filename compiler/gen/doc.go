// Package gen generates staged builders for the records described by
// compiler/load schemas.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Go source / schema document (compiler/load)
//	        ↓
//	   load.Schema
//	        ↓
//	   Names (synthesized identifiers, collision checks)
//	        ↓
//	   Record (translated type expressions)
//	        ↓
//	   builder type, constructor, setters, finalizer (jennifer)
//	        ↓
//	   {record}_builder.go
//
// # Static Builders
//
// For a record
//
//	type Point struct {
//		X, Y int
//	}
//
// the generator emits a builder with one flag type parameter per field and
// package-level generic functions that move the flags from stagebuild.Unset
// to stagebuild.Set:
//
//	type PointBuilder[X_INIT stagebuild.Flag, Y_INIT stagebuild.Flag] struct { ... }
//
//	func NewPointBuilder() PointBuilder[stagebuild.Unset, stagebuild.Unset]
//	func PointBuilderX[Y_INIT stagebuild.Flag](b PointBuilder[stagebuild.Unset, Y_INIT], value int) PointBuilder[stagebuild.Set, Y_INIT]
//	func PointBuilderY[X_INIT stagebuild.Flag](b PointBuilder[X_INIT, stagebuild.Unset], value int) PointBuilder[X_INIT, stagebuild.Set]
//	func BuildPoint(b PointBuilder[stagebuild.Set, stagebuild.Set]) Point
//
// Setting a field twice, or building before every field is set, does not
// compile. Go methods cannot be restricted to some instantiations of their
// receiver, which is why the setters are functions.
//
// # Checked Builders
//
// With ModeChecked the generator emits a conventional fluent builder whose
// setter methods are named after the fields. Misuse is reported at run time
// by Build as stagebuild.FieldError values.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - IdentifierError: an identifier cannot be synthesized or collides
//   - ConfigError: configuration errors
//   - GenerationError: rendering or writing a file failed
//
// Example error handling:
//
//	if err := g.Generate(ctx, "", schemas...); err != nil {
//	    if errors.Is(err, gen.ErrIllegalIdentifier) {
//	        // Rename the offending field or declaration.
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithMode(gen.ModeChecked),
//	    gen.WithWorkers(4),
//	    gen.WithHeader("Code generated by stagebuild. DO NOT EDIT."),
//	)
//
// or read from a YAML file with LoadConfigFile.
package gen
