package progress

import (
	"sync"
)

// Reporter observes units of work as they complete. Implementations never
// block the caller on output and never fail; write errors are dropped.
type Reporter interface {
	Advance(label string)
}

// Nop discards every update
type Nop struct{}

func (Nop) Advance(string) {}

// Counter counts updates without rendering anything
type Counter struct {
	mu     sync.Mutex
	n      int
	labels []string
}

func (c *Counter) Advance(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.labels = append(c.labels, label)
}

// Count returns the number of updates seen
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Labels returns the labels of every update, in arrival order
func (c *Counter) Labels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.labels...)
}

var (
	_ Reporter = Nop{}
	_ Reporter = (*Counter)(nil)
	_ Reporter = (*Dots)(nil)
	_ Reporter = (*Bar)(nil)
)
