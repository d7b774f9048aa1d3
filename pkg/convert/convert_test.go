package convert

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `<?xml version='1.0'?>
<svg width="40" height="30" viewBox="0 0 40 30" version="1.1" xmlns="http://www.w3.org/2000/svg">
 <g transform="translate(10,5)">
  <rect x="0" y="0" width="20" height="20" fill="#F3C"/>
  <text x="0" y="0">歩</text>
 </g>
</svg>
`

func TestNew(t *testing.T) {
	c, err := New(RSVG, "", "")
	require.NoError(t, err)
	assert.Equal(t, &Process{Path: "rsvg-convert", Args: []string{"--format=png", "--background-color=white"}}, c)

	c, err = New(Inkscape, "/opt/inkscape", "#eee")
	require.NoError(t, err)
	assert.Equal(t, &Process{Path: "/opt/inkscape", Args: []string{"--pipe", "--export-filename=-", "--export-type=png", "-b", "#eee"}}, c)

	c, err = New(OKSVG, "", "none")
	require.NoError(t, err)
	assert.Equal(t, &Raster{Background: "none"}, c)

	_, err = New("imagemagick", "", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	assert.Equal(t, []string{Inkscape, OKSVG, RSVG}, Backends())
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found: %v", name, err)
	}
	return path
}

func TestProcessPipesThrough(t *testing.T) {
	p := &Process{Path: lookPath(t, "cat")}
	out, err := p.Convert(context.Background(), []byte(square))
	require.NoError(t, err)
	assert.Equal(t, square, string(out))
}

func TestProcessErrors(t *testing.T) {
	_, err := (&Process{}).Convert(context.Background(), []byte(square))
	require.Error(t, err)

	_, err = (&Process{Path: "/nonexistent/rsvg-convert"}).Convert(context.Background(), []byte(square))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error running png converter... [")

	_, err = (&Process{Path: lookPath(t, "false")}).Convert(context.Background(), []byte(square))
	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestProcessTimeout(t *testing.T) {
	p := &Process{Path: lookPath(t, "sleep"), Args: []string{"5"}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := p.Convert(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRaster(t *testing.T) {
	out, err := (&Raster{Background: "white"}).Convert(context.Background(), []byte(square))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	r, g, b, a := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{r, g, b, a})

	r, g, b, _ = img.At(20, 15).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Less(t, g>>8, uint32(100))
	assert.Greater(t, b>>8, uint32(150))
}

func TestRasterTransparent(t *testing.T) {
	out, err := (&Raster{Background: "none"}).Convert(context.Background(), []byte(square))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	_, _, _, a := img.At(1, 1).RGBA()
	assert.Zero(t, a)
}

func TestRasterRejectsGarbage(t *testing.T) {
	_, err := (&Raster{}).Convert(context.Background(), []byte("not svg"))
	require.Error(t, err)
}
