package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"sfenimg/pkg/archive"
)

// pipeline renders jobs on a worker pool and streams the rows into one
// parquet archive.
type pipeline struct {
	renderer *renderer
	output   string
	workers  int
	resume   bool
	logger   *slog.Logger
	progress io.Writer
}

type batchStats struct {
	processed int64
	failed    int64
	stopped   bool
}

// run stops early when ctx is cancelled or the archive cannot be written.
// Rows rendered before a cancellation are kept; a write failure is
// returned.
func (p *pipeline) run(parent context.Context, jobList []job) (batchStats, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var stats batchStats
	workers := p.workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobList) {
		workers = len(jobList)
	}
	if workers == 0 {
		return stats, nil
	}
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := p.progress
	if progress == nil {
		progress = io.Discard
	}

	outputTarget := p.output
	processedIDs := make(map[string]struct{})
	resumeFromExisting := false
	if p.resume {
		if _, err := os.Stat(p.output); err == nil {
			resumeFromExisting = true
			outputTarget = p.output + ".tmp"
		}
	}

	results := make(chan archive.Diagram, workers)
	writeErr := make(chan error, 1)
	go func() {
		err := archive.Write(outputTarget, results, int64(workers))
		if err != nil {
			cancel()
		}
		writeErr <- err
	}()
	if resumeFromExisting {
		if err := readExisting(p.output, int64(workers), processedIDs, results); err != nil {
			close(results)
			<-writeErr
			_ = os.Remove(outputTarget)
			return stats, fmt.Errorf("resume from %s: %w", p.output, err)
		}
		logger.Info("resuming", "existing", len(processedIDs))
	}

	done := make(chan struct{})
	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func(total int) {
		defer progressWg.Done()
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				count := int(atomic.LoadInt64(&stats.processed))
				fmt.Fprintf(progress, "\rprogress: %d/%d (%d%%)\n", count, total, percent(count, total))
				return
			case <-ticker.C:
				count := int(atomic.LoadInt64(&stats.processed))
				fmt.Fprintf(progress, "\rprogress: %d/%d (%d%%)", count, total, percent(count, total))
			}
		}
	}(len(jobList))

	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if isStopRequested(ctx.Done()) {
					return
				}
				start := time.Now()
				row, err := p.renderer.render(ctx, j)
				if err != nil {
					return
				}
				elapsed := time.Since(start).Round(time.Millisecond)
				if row.Failed() {
					atomic.AddInt64(&stats.failed, 1)
					logger.Warn("render failed", "id", row.ID, "elapsed", elapsed, "err", row.Error)
				} else {
					logger.Debug("rendered", "id", row.ID, "elapsed", elapsed)
				}
				select {
				case results <- row:
				case <-ctx.Done():
					return
				}
				atomic.AddInt64(&stats.processed, 1)
			}
		}()
	}

enqueue:
	for _, j := range jobList {
		if _, ok := processedIDs[j.id]; ok {
			atomic.AddInt64(&stats.processed, 1)
			continue
		}
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- j:
		}
	}
	close(jobs)
	wg.Wait()
	close(done)
	progressWg.Wait()
	close(results)

	if err := <-writeErr; err != nil {
		if resumeFromExisting {
			_ = os.Remove(outputTarget)
		}
		return stats, err
	}
	if resumeFromExisting {
		if err := os.Rename(outputTarget, p.output); err != nil {
			return stats, err
		}
	}
	stats.stopped = parent.Err() != nil
	return stats, nil
}

// readExisting copies the rows of an earlier run into out and records
// their ids so they are not drawn again.
func readExisting(path string, parallel int64, ids map[string]struct{}, out chan<- archive.Diagram) error {
	return archive.Scan(path, parallel, func(d archive.Diagram) error {
		ids[d.ID] = struct{}{}
		out <- d
		return nil
	})
}

func percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(count) / float64(total) * 100)
}

func isStopRequested(stopRequested <-chan struct{}) bool {
	select {
	case <-stopRequested:
		return true
	default:
		return false
	}
}
