// Package stagebuild is the runtime support imported by builders generated
// with cmd/stagebuild.
//
// A generated builder carries one type parameter per record field. The
// parameter is instantiated with Unset until the field's setter has been
// called, and with Set afterwards:
//
//	b := NewPointBuilder()                  // PointBuilder[stagebuild.Unset, stagebuild.Unset]
//	b2 := PointBuilderX(b, 1)               // PointBuilder[stagebuild.Set, stagebuild.Unset]
//	p := BuildPoint(PointBuilderY(b2, 2))   // requires PointBuilder[stagebuild.Set, stagebuild.Set]
//
// Calling a setter twice, or finalizing before every field is set, does not
// type-check.
package stagebuild

// Unset marks a builder field whose value has not been supplied.
type Unset struct{}

// Set marks a builder field whose value has been supplied.
type Set struct{}

// Flag is the constraint of the per-field state parameters of a builder.
type Flag interface {
	Unset | Set
}
