package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kifDir = "../../pkg/sfen/testdata"

func TestReadList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.txt")
	content := "# comment\r\n" +
		"4k4/9/9/9/9/9/9/9/4K4 b - 1\t5958OU\tking walk\r\n" +
		"\r\n" +
		"9/9/9/9/9/9/9/9/9 b - 1\n" +
		"9/9/9/9/9/9/9/9/9 w - 2\t\tonly title\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	jobs, err := loadJobs(path, -1)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, job{id: "positions.txt:2", sfen: "4k4/9/9/9/9/9/9/9/4K4 b - 1", lastMove: "5958OU", title: "king walk"}, jobs[0])
	assert.Equal(t, job{id: "positions.txt:4", sfen: "9/9/9/9/9/9/9/9/9 b - 1"}, jobs[1])
	assert.Equal(t, "only title", jobs[2].title)
	assert.Equal(t, "", jobs[2].lastMove)
}

func TestLoadJobsDir(t *testing.T) {
	jobs, err := loadJobs(kifDir, 3)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.id)
		assert.Equal(t, 3, j.ply)
	}
	assert.Equal(t, []string{"basic_aigakari.kif", "basic_aigakari_sjis.kif", "tsume.kif"}, ids)

	_, err = loadJobs(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}

func TestRenderSFEN(t *testing.T) {
	var warned []string
	r := &renderer{timeout: time.Second, warn: func(id string, err error) { warned = append(warned, id) }}

	row, err := r.render(context.Background(), job{id: "a", sfen: "4k4/9/9/9/9/9/9/9/4K4 b - 1", lastMove: "5958OU", title: "t"})
	require.NoError(t, err)
	assert.False(t, row.Failed())
	assert.Equal(t, int32(2), row.Pieces)
	assert.Contains(t, row.SVG, `id="lastmove"`)
	assert.Empty(t, row.PNG)

	row, err = r.render(context.Background(), job{id: "b", sfen: "4k4/9/9/9/9/9/9/9/4K4 b - 1", lastMove: "bogus"})
	require.NoError(t, err)
	assert.False(t, row.Failed())
	assert.NotContains(t, row.SVG, `id="lastmove"`)
	assert.Equal(t, []string{"b"}, warned)

	row, err = r.render(context.Background(), job{id: "c", sfen: "9/9/9"})
	require.NoError(t, err)
	assert.True(t, row.Failed())
	assert.Contains(t, row.Error, "sfen needs board")

	row, err = r.render(context.Background(), job{id: "d", sfen: "9/9/9/9/9/9/9/9/Z8 b - 1"})
	require.NoError(t, err)
	assert.True(t, row.Failed())
	assert.Empty(t, row.SVG)
}

func TestRenderKIF(t *testing.T) {
	r := &renderer{timeout: time.Second}
	row, err := r.render(context.Background(), job{id: "k", kif: filepath.Join(kifDir, "basic_aigakari.kif"), ply: -1})
	require.NoError(t, err)
	require.False(t, row.Failed(), row.Error)
	assert.Equal(t, "3122GI", row.LastMove)
	assert.Equal(t, "テスト対局", row.Title)
	assert.Contains(t, row.SVG, "先手太郎")
	assert.True(t, strings.HasSuffix(row.SFEN, " 13"))

	row, err = r.render(context.Background(), job{id: "k0", kif: filepath.Join(kifDir, "basic_aigakari.kif"), ply: 0})
	require.NoError(t, err)
	assert.Equal(t, "", row.LastMove)
	assert.Equal(t, int32(40), row.Pieces)

	row, err = r.render(context.Background(), job{id: "m", kif: filepath.Join(kifDir, "missing.kif")})
	require.NoError(t, err)
	assert.True(t, row.Failed())
}

type failingConverter struct{ err error }

func (f failingConverter) Convert(ctx context.Context, svg []byte) ([]byte, error) {
	return nil, f.err
}

func TestRenderPNG(t *testing.T) {
	r := &renderer{timeout: time.Second, converter: failingConverter{errors.New("no rsvg")}}
	row, err := r.render(context.Background(), job{id: "p", sfen: "9/9/9/9/9/9/9/9/9 b - 1"})
	require.NoError(t, err)
	assert.Equal(t, "no rsvg", row.Error)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.render(ctx, job{id: "p", sfen: "9/9/9/9/9/9/9/9/9 b - 1"})
	assert.ErrorIs(t, err, context.Canceled)
}
