package stagebuild

// Slot is the deferred storage of one builder field. The zero Slot is empty.
type Slot[T any] struct {
	value  T
	filled bool
}

// Fill returns a slot holding v.
func Fill[T any](v T) Slot[T] {
	return Slot[T]{value: v, filled: true}
}

// Take returns the stored value without checking that the slot was filled.
// Generated finalizers call it only on builders whose flags are all Set.
func (s Slot[T]) Take() T {
	return s.value
}

// Get returns the stored value and whether the slot was filled.
func (s Slot[T]) Get() (T, bool) {
	return s.value, s.filled
}

// Filled reports whether the slot holds a value.
func (s Slot[T]) Filled() bool {
	return s.filled
}
