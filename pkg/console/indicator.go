package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const indicatorInterval = 100 * time.Millisecond

var indicatorFrames = []string{"/", "-", "\\", "|"}

// Indicator animates a loading line on its own goroutine until stopped.
// One indicator covers one streaming cycle: started right before the
// request is issued, stopped when the first fragment arrives.
type Indicator struct {
	out    io.Writer
	done   chan struct{}
	joined chan struct{}
	stop   sync.Once
}

// StartIndicator spawns the animation goroutine and returns its handle.
func StartIndicator(out io.Writer) *Indicator {
	ind := &Indicator{
		out:    out,
		done:   make(chan struct{}),
		joined: make(chan struct{}),
	}
	go ind.run()
	return ind
}

func (ind *Indicator) run() {
	defer close(ind.joined)

	ticker := time.NewTicker(indicatorInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		fmt.Fprintf(ind.out, "\rLoading... %s", indicatorFrames[frame%len(indicatorFrames)])
		select {
		case <-ind.done:
			return
		case <-ticker.C:
		}
	}
}

// Stop signals the goroutine, waits for it to exit, then clears the
// indicator line. It is idempotent, and safe to call even when the stream
// produced no fragments. After Stop returns no further indicator output is
// written, so callers may print immediately.
func (ind *Indicator) Stop() {
	ind.stop.Do(func() {
		close(ind.done)
		<-ind.joined
		fmt.Fprint(ind.out, "\r"+strings.Repeat(" ", 20)+"\r")
	})
}
