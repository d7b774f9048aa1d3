package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"sfenimg/pkg/config"
	"sfenimg/pkg/convert"
	"sfenimg/pkg/logging"
)

func main() {
	startTime := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configPath := flag.String("config", "", "path to config file")
	input := flag.String("input", "positions.txt", "list of sfen<TAB>lastmove<TAB>title lines, or a directory of KIF files")
	ply := flag.Int("ply", -1, "ply to draw from each KIF file (default: end of game)")
	outputPath := flag.String("output", "diagrams.parquet", "output parquet file")
	processNum := flag.Int("process-num", 0, "number of parallel workers (default: config workers)")
	resume := flag.Bool("resume", false, "resume from existing output parquet")
	withPNG := flag.Bool("png", false, "also rasterize each diagram")
	converterName := flag.String("converter", "", "png converter (overrides config)")
	flag.Parse()

	cfg, dir, err := config.Resolve(*configPath)
	if err != nil {
		fatal(err)
	}
	logger, closeLog, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	r := &renderer{
		timeout: cfg.ConvertTimeout.Duration,
		warn: func(id string, err error) {
			logger.Warn("ignoring last move", "id", id, "err", err)
		},
	}
	if *withPNG {
		name, path := cfg.Converter, cfg.ConverterExecutable(dir)
		if *converterName != "" {
			name, path = *converterName, ""
		}
		if r.converter, err = convert.New(name, path, cfg.Background); err != nil {
			fatal(err)
		}
	}

	jobList, err := loadJobs(*input, *ply)
	if err != nil {
		fatal(err)
	}
	if len(jobList) == 0 {
		fatal(fmt.Errorf("nothing to render in %s", *input))
	}

	workers := *processNum
	if workers <= 0 {
		workers = cfg.Workers
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopCh)
	go func() {
		select {
		case <-stopCh:
			logger.Warn("stop requested")
			cancel()
		case <-ctx.Done():
		}
	}()

	p := &pipeline{
		renderer: r,
		output:   *outputPath,
		workers:  workers,
		resume:   *resume,
		logger:   logger,
		progress: os.Stderr,
	}
	stats, err := p.run(ctx, jobList)
	if err != nil {
		fatal(err)
	}
	logger.Info("finished",
		"elapsed", time.Since(startTime).Round(time.Second),
		"processed", stats.processed,
		"failed", stats.failed,
		"stopped", stats.stopped,
		"output", *outputPath,
	)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
