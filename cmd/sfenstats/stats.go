package main

import (
	"fmt"
	"io"
	"sort"

	"sfenimg/pkg/archive"
)

type pieceStats struct {
	binSize     int
	count       int
	sum         int64
	min         int
	max         int
	initialized bool
	bins        map[int]int
}

func newPieceStats(binSize int) *pieceStats {
	return &pieceStats{
		binSize: binSize,
		bins:    make(map[int]int),
	}
}

func (ps *pieceStats) Add(pieces int32) {
	value := int(pieces)
	ps.count++
	ps.sum += int64(value)
	if !ps.initialized {
		ps.min = value
		ps.max = value
		ps.initialized = true
	} else {
		if value < ps.min {
			ps.min = value
		}
		if value > ps.max {
			ps.max = value
		}
	}
	binStart := (value / ps.binSize) * ps.binSize
	ps.bins[binStart]++
}

func (ps *pieceStats) Average() float64 {
	if ps.count == 0 {
		return 0
	}
	return float64(ps.sum) / float64(ps.count)
}

// summary aggregates an archive: good rows feed the piece statistics,
// failed rows are counted by error message.
type summary struct {
	rows      int
	withPNG   int
	svgBytes  int64
	pieces    *pieceStats
	failures  map[string]int
	failedIDs []string
}

func newSummary(binSize int) *summary {
	return &summary{pieces: newPieceStats(binSize), failures: make(map[string]int)}
}

func (s *summary) Add(d archive.Diagram) error {
	s.rows++
	if d.Failed() {
		s.failures[d.Error]++
		s.failedIDs = append(s.failedIDs, d.ID)
		return nil
	}
	s.pieces.Add(d.Pieces)
	s.svgBytes += int64(len(d.SVG))
	if d.PNG != "" {
		s.withPNG++
	}
	return nil
}

func (s *summary) Failed() int { return len(s.failedIDs) }

type reason struct {
	msg   string
	count int
}

// topFailures lists failure messages, most frequent first.
func (s *summary) topFailures(n int) []reason {
	reasons := make([]reason, 0, len(s.failures))
	for msg, count := range s.failures {
		reasons = append(reasons, reason{msg, count})
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].count != reasons[j].count {
			return reasons[i].count > reasons[j].count
		}
		return reasons[i].msg < reasons[j].msg
	})
	if n > 0 && len(reasons) > n {
		reasons = reasons[:n]
	}
	return reasons
}

func (s *summary) Write(w io.Writer, top int) {
	ok := s.rows - s.Failed()
	fmt.Fprintf(w, "rows: %d\n", s.rows)
	fmt.Fprintf(w, "rendered: %d (png=%d)\n", ok, s.withPNG)
	fmt.Fprintf(w, "failed: %d\n", s.Failed())
	if ok > 0 {
		fmt.Fprintf(w, "average pieces: %.2f\n", s.pieces.Average())
		fmt.Fprintf(w, "pieces range: %d-%d\n", s.pieces.min, s.pieces.max)
		fmt.Fprintf(w, "average svg bytes: %d\n", s.svgBytes/int64(ok))
	}
	fmt.Fprintf(w, "pieces distribution (bin size=%d):\n", s.pieces.binSize)
	keys := make([]int, 0, len(s.pieces.bins))
	for key := range s.pieces.bins {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, start := range keys {
		end := start + s.pieces.binSize - 1
		fmt.Fprintf(w, "%d-%d,%d\n", start, end, s.pieces.bins[start])
	}
	if reasons := s.topFailures(top); len(reasons) > 0 {
		fmt.Fprintf(w, "failure reasons:\n")
		for _, r := range reasons {
			fmt.Fprintf(w, "%d\t%s\n", r.count, r.msg)
		}
	}
}
