package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parafetch/parafetch/internal/output"
)

// ProgressManager is the single shared byte counter for one download. All
// segment workers feed it; one goroutine renders it at a fixed tick so the
// redraw rate stays bounded no matter how small the reported chunks are.
type ProgressManager struct {
	title     string
	totalSize int64
	startTime time.Time

	downloaded atomic.Int64

	mutex      sync.Mutex
	lastUpdate time.Time
	lastBytes  int64
	speed      float64 // MB/s
	rendered   bool
	out        io.Writer

	doneCh     chan struct{}
	renderDone chan struct{}
	stopOnce   sync.Once
}

func NewProgressManager(title string, totalSize int64) *ProgressManager {
	return &ProgressManager{
		title:      title,
		totalSize:  totalSize,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
		out:        os.Stdout,
		doneCh:     make(chan struct{}),
		renderDone: make(chan struct{}),
	}
}

// SetOutput redirects rendering, mainly for tests.
func (pm *ProgressManager) SetOutput(w io.Writer) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.out = w
}

func (pm *ProgressManager) Add(bytesDownloaded int64) {
	pm.downloaded.Add(bytesDownloaded)
}

func (pm *ProgressManager) Downloaded() int64 {
	return pm.downloaded.Load()
}

func (pm *ProgressManager) StartDisplay() {
	go func() {
		defer close(pm.renderDone)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.render()
			case <-pm.doneCh:
				pm.render()
				return
			}
		}
	}()
}

// Stop finalizes the display. It blocks until the renderer has drawn its
// terminal state and is safe to call more than once.
func (pm *ProgressManager) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.doneCh)
		<-pm.renderDone
	})
}

func (pm *ProgressManager) render() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	downloaded := pm.downloaded.Load()
	if downloaded > pm.totalSize {
		downloaded = pm.totalSize
	}
	now := time.Now()
	timeDiff := now.Sub(pm.lastUpdate).Seconds()
	if timeDiff > 0 {
		pm.speed = float64(downloaded-pm.lastBytes) / timeDiff / 1024 / 1024 // MB/s
		pm.lastUpdate = now
		pm.lastBytes = downloaded
	}
	eta := "calculating..."
	if pm.speed > 0 && pm.totalSize > 0 {
		etaSeconds := int64(float64(pm.totalSize-downloaded) / (pm.speed * 1024 * 1024))
		if etaSeconds < 60 {
			eta = fmt.Sprintf("%ds", etaSeconds)
		} else if etaSeconds < 3600 {
			eta = fmt.Sprintf("%dm %ds", etaSeconds/60, etaSeconds%60)
		} else {
			eta = fmt.Sprintf("%dh %dm", etaSeconds/3600, (etaSeconds%3600)/60)
		}
	}

	title := pm.title
	if len(title) > 25 {
		title = "..." + title[len(title)-22:]
	}
	barWidth := min(max(output.TerminalWidth()-60, 10), 40)
	bar := output.ProgressBar(downloaded, pm.totalSize, barWidth)
	if pm.rendered {
		fmt.Fprintf(pm.out, "\033[1A\033[J")
	}
	fmt.Fprintf(pm.out, "%s: %s %s/%s %.2f MB/s ETA: %s\n", title, bar,
		output.FormatBytes(uint64(downloaded)), output.FormatBytes(uint64(pm.totalSize)), pm.speed, eta)
	pm.rendered = true
}

func (pm *ProgressManager) ShowSummary() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	elapsed := time.Since(pm.startTime).Seconds()
	downloaded := pm.downloaded.Load()
	overallSpeed := float64(downloaded) / elapsed / 1024 / 1024
	fmt.Fprintf(pm.out, "Total Data: %s, Overall Speed: %.2f MB/s, Time Elapsed: %.2fs\n",
		output.FormatBytes(uint64(downloaded)), overallSpeed, elapsed)
}
