package buildflags

//stagebuild:builder
type Point struct {
	X, Y int
}
