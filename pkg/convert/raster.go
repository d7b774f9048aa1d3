package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Raster draws the SVG in process. Only shapes are drawn; text elements
// are skipped, so pieces and names do not appear.
type Raster struct {
	Background string
}

func (r *Raster) Convert(ctx context.Context, svg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, converterError(err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, converterError(err)
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, converterError(fmt.Errorf("bad viewBox %vx%v", icon.ViewBox.W, icon.ViewBox.H))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if r.Background != "" && r.Background != "none" && r.Background != "transparent" {
		bg, err := oksvg.ParseSVGColor(r.Background)
		if err != nil {
			return nil, converterError(err)
		}
		if bg != nil {
			draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		}
	}
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.SetTarget(0, 0, float64(w), float64(h))
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, converterError(err)
	}
	return out.Bytes(), nil
}
