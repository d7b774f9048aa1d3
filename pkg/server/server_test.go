package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standard = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

type fakeConverter struct {
	got []byte
	out []byte
	err error
}

func (f *fakeConverter) Convert(ctx context.Context, svg []byte) ([]byte, error) {
	f.got = svg
	return f.out, f.err
}

type blockingConverter struct{}

func (blockingConverter) Convert(ctx context.Context, svg []byte) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return "/?" + v.Encode()
}

func TestMissingSFEN(t *testing.T) {
	h := New(nil, WithLogger(quietLogger())).Routes()
	for _, target := range []string{"/", "/?sfen=", "/?image=svg"} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, contentText, rec.Header().Get("Content-Type"), target)
		assert.Equal(t, "sfen is not specified...", rec.Body.String(), target)
	}
}

func TestSVG(t *testing.T) {
	h := New(nil, WithLogger(quietLogger())).Routes()
	rec := get(t, h, query("sfen", standard, "sname", "先手", "gname", "後手", "title", "a<b"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentSVG, rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<?xml version='1.0'?>\n<svg"))
	assert.Contains(t, body, "先手")
	assert.Contains(t, body, "a&lt;b")
	assert.NotContains(t, body, `id="lastmove"`)
}

func TestLastMove(t *testing.T) {
	h := New(nil, WithLogger(quietLogger())).Routes()
	rec := get(t, h, query("sfen", standard, "lm", "7776FU"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="lastmove"`)

	// a bad move is logged and dropped
	rec = get(t, h, query("sfen", standard, "lm", "77ZZ"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentSVG, rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), `id="lastmove"`)
}

func TestRenderErrors(t *testing.T) {
	h := New(nil, WithLogger(quietLogger())).Routes()

	rec := get(t, h, query("sfen", "9/9/9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, contentText, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "sfen needs board, turn, hand and move number")

	rec = get(t, h, query("sfen", "9/9/9/9/9/9/9/9/X8 b - 1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X8")
}

func TestImageTypes(t *testing.T) {
	conv := &fakeConverter{out: []byte("\x89PNG")}
	h := New(conv, WithLogger(quietLogger())).Routes()

	rec := get(t, h, query("sfen", standard, "image", "png"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentPNG, rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
	assert.True(t, strings.HasPrefix(string(conv.got), "<?xml"))

	rec = get(t, h, query("sfen", standard, "image", "bmp"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `invalid image type. "bmp"`, rec.Body.String())

	rec = get(t, h, query("sfen", "4k4/9/9/9/9/9/9/9/4K4 b G2p 1", "image", "txt", "sname", "sente", "gname", "gote"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentText, rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "後手：gote\n"))
	assert.Contains(t, body, "先手：sente\n")
}

func TestConverterFailures(t *testing.T) {
	conv := &fakeConverter{err: errors.New("error running png converter... [boom]")}
	h := New(conv, WithLogger(quietLogger())).Routes()
	rec := get(t, h, query("sfen", standard, "image", "png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, contentText, rec.Header().Get("Content-Type"))
	assert.Equal(t, "error running png converter... [boom]", rec.Body.String())

	h = New(nil, WithLogger(quietLogger())).Routes()
	rec = get(t, h, query("sfen", standard, "image", "png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errNoConverter.Error(), rec.Body.String())

	h = New(blockingConverter{}, WithLogger(quietLogger()), WithConvertTimeout(20*time.Millisecond)).Routes()
	rec = get(t, h, query("sfen", standard, "image", "png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), context.DeadlineExceeded.Error())
}

func TestHelpAndHealth(t *testing.T) {
	h := New(nil, WithLogger(quietLogger())).Routes()

	rec := get(t, h, "/help")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentHTML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>help - sfenimageserver -</title>")

	rec = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, h, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := New(nil, WithLogger(logger)).Routes()
	get(t, h, "/healthz")
	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "path=/healthz")
	assert.Contains(t, out, "status=200")
}
