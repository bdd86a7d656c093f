package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/fenilsonani/diskscout/pkg/utils"
)

// DefaultInterval is the minimum delay between two rendered updates
const DefaultInterval = 100 * time.Millisecond

// maxPathWidth bounds the path shown on the status line
const maxPathWidth = 50

// ScanProgress is a snapshot of a running directory walk
type ScanProgress struct {
	CurrentPath string
	FilesFound  int
	TotalSize   uint64
	StartTime   time.Time
}

// Elapsed returns time since the scan started
func (p ScanProgress) Elapsed() time.Duration {
	return time.Since(p.StartTime)
}

// Printer renders scan progress as a single rewritten status line.
// Updates arrive on the scanning goroutine and are throttled to interval.
type Printer struct {
	w        io.Writer
	interval time.Duration
	now      func() time.Time
	last     time.Time
	state    ScanProgress
	rendered bool
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer, interval time.Duration) *Printer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Printer{w: w, interval: interval, now: time.Now}
}

// Update records a progress snapshot; it has the shape of scanner.ProgressCallback
func (p *Printer) Update(currentPath string, filesFound int, totalSize uint64) {
	now := p.now()
	if p.state.StartTime.IsZero() {
		p.state.StartTime = now
	}
	p.state.CurrentPath = currentPath
	p.state.FilesFound = filesFound
	p.state.TotalSize = totalSize

	if p.rendered && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.render()
}

// State returns the latest snapshot
func (p *Printer) State() ScanProgress {
	return p.state
}

// Done clears the status line. It is a no-op if nothing was rendered.
func (p *Printer) Done() {
	if !p.rendered {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K")
	p.rendered = false
}

func (p *Printer) render() {
	path := p.state.CurrentPath
	if len(path) > maxPathWidth {
		path = "..." + path[len(path)-(maxPathWidth-3):]
	}
	fmt.Fprintf(p.w, "\r\033[KScanning: %d files, %s  %s", p.state.FilesFound, utils.FormatBytes(p.state.TotalSize), path)
	p.rendered = true
}
