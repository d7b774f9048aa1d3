// Package convert turns an SVG document into PNG bytes, either through an
// external converter process or in process.
package convert

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownBackend is returned by New for a name it does not know.
var ErrUnknownBackend = errors.New("unknown converter type")

// Converter rasterizes one SVG document. It either returns the whole image
// or an error, never a partial image.
type Converter interface {
	Convert(ctx context.Context, svg []byte) ([]byte, error)
}

const (
	RSVG     = "rsvg"
	Inkscape = "inkscape"
	OKSVG    = "oksvg"
)

var backends = map[string]func(path, background string) Converter{
	RSVG: func(path, background string) Converter {
		if path == "" {
			path = "rsvg-convert"
		}
		return &Process{Path: path, Args: []string{"--format=png", "--background-color=" + background}}
	},
	Inkscape: func(path, background string) Converter {
		if path == "" {
			path = "inkscape"
		}
		return &Process{Path: path, Args: []string{"--pipe", "--export-filename=-", "--export-type=png", "-b", background}}
	},
	OKSVG: func(_, background string) Converter {
		return &Raster{Background: background}
	},
}

// New picks a backend by name. path overrides the executable of a process
// backend; background is the fill behind the drawing.
func New(name, path, background string) (Converter, error) {
	build, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	if background == "" {
		background = "white"
	}
	return build(path, background), nil
}

// Backends lists the known backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
