package stagebuild

// Scope is the constraint of a record's scope parameters. Scope parameters
// are phantom: they tag references with the region they were borrowed in and
// carry no value. Only Root and Nested implement it.
type Scope interface {
	scope()
}

// Within is the constraint of a scope parameter contained by the scope O.
type Within[O Scope] interface {
	Scope
	within(O)
}

// Root is the outermost scope.
type Root struct{}

func (Root) scope() {}

// Nested is a scope contained by O.
type Nested[O Scope] struct{}

func (Nested[O]) scope() {}

func (Nested[O]) within(O) {}

// Ref is a pointer tagged with the scope S it was borrowed in.
type Ref[S Scope, T any] struct {
	ptr *T
}

// Borrow returns p tagged with the scope S.
func Borrow[S Scope, T any](p *T) Ref[S, T] {
	return Ref[S, T]{ptr: p}
}

// Narrow re-tags a reference borrowed in O for use in the inner scope I.
func Narrow[I Within[O], O Scope, T any](r Ref[O, T]) Ref[I, T] {
	return Ref[I, T]{ptr: r.ptr}
}

// Get returns the underlying pointer.
func (r Ref[S, T]) Get() *T {
	return r.ptr
}

// Equal reports whether both references point to the same value.
func (r Ref[S, T]) Equal(o Ref[S, T]) bool {
	return r.ptr == o.ptr
}
