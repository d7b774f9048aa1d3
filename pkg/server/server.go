// Package server serves board diagrams over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sfenimg/pkg/convert"
	"sfenimg/pkg/diagram"
	"sfenimg/pkg/sfen"
)

const (
	contentText = "text/plain; charset=utf-8"
	contentSVG  = "image/svg+xml"
	contentPNG  = "image/png"
	contentHTML = "text/html; charset=utf-8"
)

const msgNoSFEN = "sfen is not specified..."

var errNoConverter = errors.New("png converter is not configured")

type Server struct {
	converter      convert.Converter
	convertTimeout time.Duration
	requestTimeout time.Duration
	log            *slog.Logger
}

type Option func(*Server)

// WithConvertTimeout bounds a single png conversion.
func WithConvertTimeout(d time.Duration) Option {
	return func(s *Server) { s.convertTimeout = d }
}

// WithRequestTimeout bounds a whole request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New returns a server rasterizing with conv. conv may be nil, in which
// case png requests fail.
func New(conv convert.Converter, opts ...Option) *Server {
	s := &Server{
		converter:      conv,
		convertTimeout: 10 * time.Second,
		requestTimeout: 30 * time.Second,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/", s.handleDiagram)
	r.Get("/help", s.handleHelp)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentText)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logger := s.log.With("request_id", middleware.GetReqID(r.Context()))
	logger.Info("diagram requested", "query", r.URL.RawQuery)

	text := q.Get("sfen")
	if text == "" {
		logger.Warn(msgNoSFEN)
		writeText(w, http.StatusBadRequest, msgNoSFEN)
		return
	}
	raw := q.Get("lm")
	pos, lm, err := sfen.ParseInput(text, raw, func(err error) {
		logger.Warn("ignoring last move", "lm", raw, "err", err)
	})
	if err != nil {
		logger.Warn("render failed", "err", err)
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := diagram.Options{
		First:  q.Get("sname"),
		Second: q.Get("gname"),
		Title:  q.Get("title"),
		Turn:   q.Get("turn"),
	}

	image := q.Get("image")
	if image == "" {
		image = "svg"
	}
	switch image {
	case "svg", "png":
	case "txt":
		dump, err := sfen.Dump(pos, lm, opts.First, opts.Second, opts.Title)
		if err != nil {
			logger.Warn("render failed", "err", err)
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		writeText(w, http.StatusOK, dump)
		return
	default:
		msg := fmt.Sprintf("invalid image type. %q", image)
		logger.Warn(msg)
		writeText(w, http.StatusBadRequest, msg)
		return
	}

	doc, err := diagram.Render(pos, lm, opts)
	if err != nil {
		logger.Warn("render failed", "err", err)
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if image == "svg" {
		w.Header().Set("Content-Type", contentSVG)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Bytes())
		return
	}

	png, err := s.convert(r.Context(), doc.Bytes())
	if err != nil {
		logger.Error("png conversion failed", "err", err)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentPNG)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) convert(ctx context.Context, svg []byte) ([]byte, error) {
	if s.converter == nil {
		return nil, errNoConverter
	}
	ctx, cancel := context.WithTimeout(ctx, s.convertTimeout)
	defer cancel()
	return s.converter.Convert(ctx, svg)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.log.Info("help requested")
	w.Header().Set("Content-Type", contentHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(helpPage))
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentText)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// requestLogger writes one record per request once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start).Round(time.Microsecond),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

const helpPage = `<html><head><title>help - sfenimageserver -</title></head>
<body><h1>sfenimageserver</h1>
<h2>options</h2>
<ul>
<li>sfen<br>sfen text. this must be given.<br>
ex. "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"
<li>lm<br>last move, e.g. 7776FU. the square is highlighted.
<li>sname<br>sente's name.
<li>gname<br>gote's name.
<li>title<br>title.
<li>turn<br>turn. b, w, fb, fw or d.
<li>image<br>svg, png or txt.
</ul>
<h2>example:</h2>
http://localhost:7582/?sfen=lnsg3nl%2F1k3s1r1%2Fppppppgpp%2F6p2%2F7P1%2F2P2PP2%2FPPBPP1N1P%2F3K2SR1%2FLNSG1G2L+w+b+20&amp;lm=3837GI&amp;sname=o-jill&amp;gname=%E3%81%A2%E3%82%8B&amp;title=2022%2F03%2F04+12%3A46%3A30&amp;turn=d&amp;image=svg
</body></html>
`
