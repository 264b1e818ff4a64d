package view

// Generation is a monotonically increasing token. A controller captures the
// current value before a suspension point and only commits the result if the
// value is unchanged. It is not synchronized; callers guard it with the
// controller's own mutex.
type Generation struct {
	n uint64
}

// Next invalidates every outstanding token and returns the new one.
func (g *Generation) Next() uint64 {
	g.n++
	return g.n
}

func (g *Generation) Current() uint64 {
	return g.n
}

// Valid reports whether token is still current.
func (g *Generation) Valid(token uint64) bool {
	return g.n == token
}
