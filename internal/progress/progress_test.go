package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotsMarkers(t *testing.T) {
	var buf bytes.Buffer
	d := NewDots(&buf)
	for range 100 {
		d.Advance("")
	}

	out := buf.String()
	require.Len(t, out, 100)
	assert.Equal(t, "|", out[99:])
	assert.Equal(t, 9, strings.Count(out, "-"))
	assert.Equal(t, 90, strings.Count(out, "."))
	assert.Equal(t, ".........-", out[:10])
	assert.Equal(t, 100, d.Count())
}

func TestDotsCounterIsPerInstance(t *testing.T) {
	var a, b bytes.Buffer
	first := NewDots(&a)
	for range 5 {
		first.Advance("")
	}
	second := NewDots(&b)
	for range 10 {
		second.Advance("")
	}
	assert.Equal(t, ".........-", b.String())
}

func TestDotsFinish(t *testing.T) {
	var buf bytes.Buffer
	d := NewDots(&buf)
	d.Finish()
	assert.Empty(t, buf.String())

	d.Advance("")
	d.Finish()
	assert.Equal(t, ".\n", buf.String())
}

func TestCounterConcurrentAdvance(t *testing.T) {
	c := &Counter{}
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance("page")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Count())
	assert.Len(t, c.Labels(), 50)
}

func TestBarView(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWithOptions(&buf, 4, BarOptions{Width: 60})
	b.Advance("Acme Ltd")
	b.Advance("Globex")

	view := ansi.Strip(b.View("Globex"))
	assert.Contains(t, view, " 2/4 ")
	assert.Contains(t, view, "Globex")
	assert.LessOrEqual(t, ansi.StringWidth(view), 60)
}

func TestBarTruncatesLongLabels(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWithOptions(&buf, 1, BarOptions{Width: 40})
	view := b.View(strings.Repeat("x", 200))
	assert.LessOrEqual(t, ansi.StringWidth(view), 40)
	assert.Contains(t, view, "…")
}

func TestBarNonInteractivePrintsPerPercent(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWithOptions(&buf, 1000, BarOptions{Width: 60})
	for range 1000 {
		b.Advance("user")
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	// one line per whole percent, 0% through 100%
	assert.Len(t, lines, 101)
	assert.Contains(t, lines[len(lines)-1], "1000/1000")
	assert.NotContains(t, buf.String(), "\x1b")
}

func TestBarInteractiveRedraws(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWithOptions(&buf, 3, BarOptions{Width: 60, Interactive: true})
	for range 3 {
		b.Advance("org")
	}
	b.Finish()
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r"))
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestBarEmptyTotal(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWithOptions(&buf, 0, BarOptions{Width: 60})
	b.Advance("stray")
	assert.Contains(t, ansi.Strip(buf.String()), "1/0")
}

type recordedSleep struct {
	calls []time.Duration
	fail  int
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	if r.fail > 0 && len(r.calls) >= r.fail {
		return context.Canceled
	}
	return ctx.Err()
}

func TestCountdownInteractiveTicks(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordedSleep{}
	c := &Countdown{w: &buf, Width: 20, Interactive: true, Tick: 100 * time.Millisecond, Sleep: rec.sleep}

	require.NoError(t, c.Run(context.Background(), time.Second))
	assert.Len(t, rec.calls, 10)
	for _, d := range rec.calls {
		assert.Equal(t, 100*time.Millisecond, d)
	}
	// first frame is a full bar, the last one is empty
	frames := strings.Split(buf.String(), "\r")
	require.Len(t, frames, 13)
	assert.Contains(t, ansi.Strip(frames[1]), strings.Repeat("_", 20))
	assert.NotContains(t, ansi.Strip(frames[11]), "_")
	assert.Empty(t, ansi.Strip(frames[12]))
}

func TestCountdownNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordedSleep{}
	c := &Countdown{w: &buf, Width: 20, Sleep: rec.sleep}

	require.NoError(t, c.Run(context.Background(), 240*time.Second))
	assert.Equal(t, []time.Duration{240 * time.Second}, rec.calls)
	assert.Equal(t, "Pausing for 4m0s\n", buf.String())
}

func TestCountdownCancelled(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordedSleep{fail: 3}
	c := &Countdown{w: &buf, Width: 20, Interactive: true, Tick: time.Second, Sleep: rec.sleep}

	err := c.Run(context.Background(), time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.calls, 3)
}

func TestCountdownRealSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCountdown(&bytes.Buffer{})
	c.Interactive = false
	err := c.Run(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSyncWriterSharedByDotsAndNotices(t *testing.T) {
	var buf bytes.Buffer
	w := NewSyncWriter(&buf)
	assert.Same(t, w, NewSyncWriter(w))

	d := NewDots(w)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				d.Advance("")
				_, _ = w.Write([]byte("notice\n"))
			}
		}()
	}
	wg.Wait()

	out := buf.String()
	assert.Equal(t, 100, strings.Count(out, "notice\n"))
	assert.Equal(t, 100, d.Count())
}
