package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/muesli/termenv"
)

const minBarWidth = 10

// BarOptions overrides what NewBar detects from the writer
type BarOptions struct {
	// Width is the full line width available
	Width int
	// Interactive redraws a single line in place. Otherwise a new line is
	// printed each time the whole percentage changes.
	Interactive bool
}

// Bar renders current/total with the label of the latest unit
type Bar struct {
	mu          sync.Mutex
	w           io.Writer
	total       int
	current     int
	width       int
	interactive bool
	lastPercent int
	bar         progress.Model
	label       lipgloss.Style
}

// NewBar returns a Bar sized to the terminal behind w
func NewBar(w io.Writer, total int) *Bar {
	return NewBarWithOptions(w, total, BarOptions{
		Width:       iostreams.Width(w),
		Interactive: iostreams.IsTerminal(w),
	})
}

// NewBarWithOptions returns a Bar using opts instead of terminal detection
func NewBarWithOptions(w io.Writer, total int, opts BarOptions) *Bar {
	profile := colorProfile(opts.Interactive)
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(profile)

	width := max(opts.Width, minBarWidth*2)
	return &Bar{
		w:           w,
		total:       total,
		width:       width,
		interactive: opts.Interactive,
		lastPercent: -1,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
			progress.WithWidth(max(width/3, minBarWidth)),
			progress.WithColorProfile(profile),
		),
		label: renderer.NewStyle().Faint(true),
	}
}

func (b *Bar) Advance(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current++

	line := b.view(label)
	if b.interactive {
		_, _ = io.WriteString(b.w, "\r"+ansi.EraseEntireLine+line)
		return
	}

	pct := int(b.fraction() * 100)
	if pct != b.lastPercent || b.current == b.total {
		b.lastPercent = pct
		_, _ = io.WriteString(b.w, line+"\n")
	}
}

// View renders the bar line for the current position
func (b *Bar) View(label string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view(label)
}

// Finish moves off the redrawn line
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interactive && b.current > 0 {
		_, _ = io.WriteString(b.w, "\n")
	}
}

func (b *Bar) fraction() float64 {
	if b.total <= 0 {
		return 1
	}
	return min(1, float64(b.current)/float64(b.total))
}

func (b *Bar) view(label string) string {
	counter := fmt.Sprintf(" %d/%d ", b.current, b.total)
	room := b.width - b.bar.Width - ansi.StringWidth(counter)
	label = ansi.Truncate(label, max(room, 0), "…")
	return b.bar.ViewAs(b.fraction()) + counter + b.label.Render(label)
}

func colorProfile(interactive bool) termenv.Profile {
	if !interactive {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
