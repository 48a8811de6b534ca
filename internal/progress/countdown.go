package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/x/ansi"
	"github.com/esfa/deskctl/internal/iostreams"
)

// DefaultTick is how often the countdown bar is redrawn
const DefaultTick = 100 * time.Millisecond

// Countdown waits out a pause while drawing a bar that shrinks to nothing
type Countdown struct {
	w           io.Writer
	Width       int
	Interactive bool
	Tick        time.Duration
	// Sleep waits for one tick; it must return ctx.Err() once ctx is done
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewCountdown returns a Countdown sized to the terminal behind w
func NewCountdown(w io.Writer) *Countdown {
	return &Countdown{
		w:           w,
		Width:       iostreams.Width(w),
		Interactive: iostreams.IsTerminal(w),
		Tick:        DefaultTick,
		Sleep:       sleep,
	}
}

// Run blocks for d, or until ctx is done
func (c *Countdown) Run(ctx context.Context, d time.Duration) error {
	wait := c.Sleep
	if wait == nil {
		wait = sleep
	}
	if d <= 0 {
		return ctx.Err()
	}

	if !c.Interactive {
		_, _ = fmt.Fprintf(c.w, "Pausing for %s\n", d)
		return wait(ctx, d)
	}

	tick := c.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	ticks := int(d / tick)
	bar := progress.New(
		progress.WithFillCharacters('_', ' '),
		progress.WithoutPercentage(),
		progress.WithSolidFill("7"),
		progress.WithWidth(max(c.Width, minBarWidth)),
		progress.WithColorProfile(colorProfile(true)),
	)

	defer func() {
		_, _ = io.WriteString(c.w, "\r"+ansi.EraseEntireLine)
	}()

	for i := 0; i <= ticks; i++ {
		remaining := 1.0
		if ticks > 0 {
			remaining = float64(ticks-i) / float64(ticks)
		}
		_, _ = io.WriteString(c.w, "\r"+ansi.EraseEntireLine+bar.ViewAs(remaining))
		if i == ticks {
			break
		}
		if err := wait(ctx, tick); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
