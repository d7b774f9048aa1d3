package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"sfenimg/pkg/config"
	"sfenimg/pkg/convert"
	"sfenimg/pkg/diagram"
	"sfenimg/pkg/logging"
	"sfenimg/pkg/sfen"
)

type options struct {
	configPath string
	sfen       string
	kif        string
	ply        int
	lastMove   string
	diagram    diagram.Options
	format     string
	out        string
	converter  string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fatal(err)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("sfen2svg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to config file")
	fs.StringVar(&opts.sfen, "sfen", "", "position to draw")
	fs.StringVar(&opts.kif, "kif", "", "KIF game record to draw a position from")
	fs.IntVar(&opts.ply, "ply", -1, "ply of the KIF record to draw (default: end of game)")
	fs.StringVar(&opts.lastMove, "lm", "", "last move to highlight, e.g. 7776FU")
	fs.StringVar(&opts.diagram.First, "sname", "", "sente's name")
	fs.StringVar(&opts.diagram.Second, "gname", "", "gote's name")
	fs.StringVar(&opts.diagram.Title, "title", "", "title")
	fs.StringVar(&opts.diagram.Turn, "turn", "", "turn marker: b, w, fb, fw or d")
	fs.StringVar(&opts.format, "format", "svg", "output format: svg, png or txt")
	fs.StringVar(&opts.out, "out", "", "output file (default: stdout)")
	fs.StringVar(&opts.converter, "converter", "", "png converter (overrides config)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if (opts.sfen == "") == (opts.kif == "") {
		return options{}, errors.New("specify exactly one of -sfen or -kif")
	}
	switch opts.format {
	case "svg", "png", "txt":
	default:
		return options{}, fmt.Errorf("invalid image type. %q", opts.format)
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, dir, err := config.Resolve(opts.configPath)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, level)

	pos, lm, err := source(&opts, logger)
	if err != nil {
		return err
	}

	var data []byte
	switch opts.format {
	case "txt":
		text, err := sfen.Dump(pos, lm, opts.diagram.First, opts.diagram.Second, opts.diagram.Title)
		if err != nil {
			return err
		}
		data = []byte(text + "\n")
	default:
		doc, err := diagram.Render(pos, lm, opts.diagram)
		if err != nil {
			return err
		}
		data = doc.Bytes()
		if opts.format == "png" {
			name, path := cfg.Converter, cfg.ConverterExecutable(dir)
			if opts.converter != "" {
				name, path = opts.converter, ""
			}
			conv, err := convert.New(name, path, cfg.Background)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ConvertTimeout.Duration)
			defer cancel()
			if data, err = conv.Convert(ctx, data); err != nil {
				return err
			}
		}
	}

	if opts.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(opts.out, data, 0o644)
}

// source resolves the position and last move from -sfen or -kif. A KIF
// record also fills in names and title the flags left empty.
func source(opts *options, logger *slog.Logger) (sfen.Position, sfen.LastMove, error) {
	warn := func(err error) {
		logger.Warn("ignoring last move", "lm", opts.lastMove, "err", err)
	}
	if opts.kif == "" {
		return sfen.ParseInput(opts.sfen, opts.lastMove, warn)
	}

	game, err := sfen.LoadKIF(opts.kif)
	if err != nil {
		return sfen.Position{}, sfen.NoMove(), fmt.Errorf("%s: %w", opts.kif, err)
	}
	ply := opts.ply
	if ply < 0 {
		ply = game.FinalPly()
	}
	text, err := game.SFENAt(ply)
	if err != nil {
		return sfen.Position{}, sfen.NoMove(), fmt.Errorf("%s: %w", opts.kif, err)
	}
	pos, lm, err := sfen.ParseInput(text, opts.lastMove, warn)
	if err != nil {
		return pos, lm, err
	}
	if opts.lastMove == "" {
		if lm, err = game.LastMoveAt(ply); err != nil {
			return pos, lm, fmt.Errorf("%s: %w", opts.kif, err)
		}
	}
	if opts.diagram.First == "" {
		opts.diagram.First = game.Players.First
	}
	if opts.diagram.Second == "" {
		opts.diagram.Second = game.Players.Second
	}
	if opts.diagram.Title == "" {
		opts.diagram.Title = game.Event
	}
	return pos, lm, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
