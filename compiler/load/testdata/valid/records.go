package valid

import (
	"time"

	sb "github.com/syssam/stagebuild"
)

// Event is selected by the directive.
//
//stagebuild:builder
type Event[S sb.Scope, I sb.Within[S], K comparable] struct {
	// Key identifies the event.
	//nolint:unused
	Key K
	// At is the time the event happened.
	At time.Time
	// Parent is borrowed from the outer scope.
	Parent sb.Ref[S, string]
	Child  sb.Ref[I, string]
	// A and B share one declaration.
	A, B int
}

type (
	// Empty has no fields.
	//stagebuild:builder
	Empty struct{}

	// Skipped carries no directive.
	Skipped struct {
		V int
	}
)

const Version = "v1"

func Helper() {}
