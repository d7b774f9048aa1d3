package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sfenimg/pkg/config"
	"sfenimg/pkg/convert"
	"sfenimg/pkg/logging"
	"sfenimg/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file (json, yaml or toml)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	logPath := flag.String("log", "", "log file (overrides config)")
	converter := flag.String("converter", "", "png converter: rsvg, inkscape or oksvg (overrides config)")
	flag.Parse()

	cfg, dir, err := config.Resolve(*configPath)
	if err != nil {
		fatal(err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *logPath != "" {
		cfg.LogPath = *logPath
	}
	if *converter != "" {
		cfg.Converter = *converter
		cfg.ConverterPath = ""
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	logger, closeLog, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	conv, err := convert.New(cfg.Converter, cfg.ConverterExecutable(dir), cfg.Background)
	if err != nil {
		fatal(err)
	}

	srv := &http.Server{
		Addr: fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: server.New(conv,
			server.WithLogger(logger),
			server.WithConvertTimeout(cfg.ConvertTimeout.Duration),
		).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ConvertTimeout.Duration + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "converter", cfg.Converter)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}
	logger.Info("stopped")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
