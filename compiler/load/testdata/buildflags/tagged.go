//go:build tagged

package buildflags

//stagebuild:builder
type Tagged struct {
	Label string
}
