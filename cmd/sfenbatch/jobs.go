package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sfenimg/pkg/archive"
	"sfenimg/pkg/convert"
	"sfenimg/pkg/diagram"
	"sfenimg/pkg/sfen"
)

// job is one diagram to draw: either a SFEN line or a KIF file at a ply.
type job struct {
	id       string
	sfen     string
	lastMove string
	title    string
	kif      string
	ply      int
}

// loadJobs reads a text list or, for a directory, every .kif file under it.
func loadJobs(input string, ply int) ([]job, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		files, err := sfen.CollectKIF(input)
		if err != nil {
			return nil, err
		}
		jobs := make([]job, 0, len(files))
		for _, path := range files {
			jobs = append(jobs, job{id: filepath.Base(path), kif: path, ply: ply})
		}
		return jobs, nil
	}
	return readList(input)
}

// readList reads "sfen<TAB>lastmove<TAB>title" lines. Blank lines and
// lines starting with # are skipped.
func readList(path string) ([]job, error) {
	lines, err := sfen.ReadLines(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	var jobs []job
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.SplitN(line, "\t", 3)
		j := job{id: fmt.Sprintf("%s:%d", base, i+1), sfen: strings.TrimSpace(cols[0])}
		if len(cols) > 1 {
			j.lastMove = strings.TrimSpace(cols[1])
		}
		if len(cols) > 2 {
			j.title = strings.TrimSpace(cols[2])
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

type renderer struct {
	converter convert.Converter
	timeout   time.Duration
	warn      func(id string, err error)
}

// render draws j. Failures are recorded on the row, not returned, except
// for cancellation.
func (r *renderer) render(ctx context.Context, j job) (archive.Diagram, error) {
	row := archive.Diagram{ID: j.id, SFEN: j.sfen, LastMove: j.lastMove, Title: j.title}
	opts := diagram.Options{Title: j.title}
	kifMove := sfen.NoMove()

	if j.kif != "" {
		game, err := sfen.LoadKIF(j.kif)
		if err != nil {
			row.Error = err.Error()
			return row, nil
		}
		ply := j.ply
		if ply < 0 || ply > game.FinalPly() {
			ply = game.FinalPly()
		}
		if row.SFEN, err = game.SFENAt(ply); err != nil {
			row.Error = err.Error()
			return row, nil
		}
		if kifMove, err = game.LastMoveAt(ply); err != nil {
			row.Error = err.Error()
			return row, nil
		}
		row.LastMove = kifMove.String()
		opts.First, opts.Second = game.Players.First, game.Players.Second
		opts.Title = game.Event
		row.Title = game.Event
	}

	pos, lm, err := sfen.ParseInput(row.SFEN, j.lastMove, func(err error) {
		if r.warn != nil {
			r.warn(j.id, err)
		}
	})
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	if j.kif != "" {
		lm = kifMove
	}

	board, err := pos.Board()
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	row.Pieces = int32(board.Pieces())

	doc, err := diagram.Render(pos, lm, opts)
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	row.SVG = doc.String()

	if r.converter == nil {
		return row, nil
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	png, err := r.converter.Convert(cctx, doc.Bytes())
	if err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		row.Error = err.Error()
		return row, nil
	}
	row.PNG = string(png)
	return row, nil
}
