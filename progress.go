package stagebuild

import "errors"

// Progress records which fields of a checked builder have been supplied.
// Checked builders are the runtime-enforced variant: misuse is reported by
// their Build method instead of being rejected by the compiler.
//
// Progress is a value. Mark returns an updated copy and never modifies the
// receiver, so a builder handle taken before a setter call keeps its state.
type Progress struct {
	set []bool
	err error
}

// Mark records that the field at index i was supplied. The returned bool is
// false if the field had already been supplied, in which case the returned
// Progress carries an ErrFieldAlreadySet error for the field.
func (p Progress) Mark(record, field string, i int) (Progress, bool) {
	if p.IsSet(i) {
		p.err = errors.Join(p.err, NewFieldError(record, field, ErrFieldAlreadySet))
		return p, false
	}
	set := make([]bool, max(len(p.set), i+1))
	copy(set, p.set)
	set[i] = true
	p.set = set
	return p, true
}

// IsSet reports whether the field at index i was supplied.
func (p Progress) IsSet(i int) bool {
	return i >= 0 && i < len(p.set) && p.set[i]
}

// Check returns the errors recorded by Mark joined with an ErrFieldUnset
// error for every field that was not supplied. The fields are given in
// index order.
func (p Progress) Check(record string, fields ...string) error {
	var errs []error
	if p.err != nil {
		errs = append(errs, p.err)
	}
	for i, name := range fields {
		if !p.IsSet(i) {
			errs = append(errs, NewFieldError(record, name, ErrFieldUnset))
		}
	}
	return errors.Join(errs...)
}
