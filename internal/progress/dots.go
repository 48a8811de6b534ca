package progress

import (
	"io"
	"sync"
)

// Dots prints one character per unit: "|" every hundredth, "-" every tenth
// and "." otherwise. The count is local to the instance.
type Dots struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

// NewDots returns a Dots reporter writing to w
func NewDots(w io.Writer) *Dots {
	return &Dots{w: w}
}

func (d *Dots) Advance(string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
	_, _ = io.WriteString(d.w, marker(d.n))
}

// Count returns the number of units reported so far
func (d *Dots) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// Finish ends the line of dots, if any were printed
func (d *Dots) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.n > 0 {
		_, _ = io.WriteString(d.w, "\n")
	}
}

func marker(n int) string {
	switch {
	case n%100 == 0:
		return "|"
	case n%10 == 0:
		return "-"
	default:
		return "."
	}
}
