package failure

import "io"

//stagebuild:builder
type Embedded struct {
	io.Reader
	Name string
}

//stagebuild:builder
type Alias = Good

//stagebuild:builder
type Names []string

//stagebuild:builder
type Good struct {
	Name string
}
