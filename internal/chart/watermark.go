package chart

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Watermarker composites a fixed text mark onto rendered images.
// It holds no mutable state and is safe for concurrent use.
type Watermarker struct {
	text    string
	opacity float64
}

func NewWatermarker(text string, opacity float64) *Watermarker {
	if text == "" {
		text = "made with chartabot"
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 0.45
	}
	return &Watermarker{text: text, opacity: opacity}
}

// Apply decodes a PNG, draws the mark anchored to the bottom-right corner
// scaled to the image's own dimensions, and re-encodes. Output dimensions
// always equal input dimensions.
func (w *Watermarker) Apply(img []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode render output: %w", err)
	}
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	size := float64(width) / 28
	if size < 12 {
		size = 12
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	dc := gg.NewContext(width, height)
	dc.DrawImage(src, 0, 0)
	dc.SetFontFace(face)
	tw, _ := dc.MeasureString(w.text)
	pad := size / 2
	x := float64(width) - tw - pad
	y := float64(height) - pad
	// dark offset behind the mark keeps it readable on light charts
	dc.SetRGBA(0, 0, 0, w.opacity/2)
	dc.DrawString(w.text, x+1, y+1)
	dc.SetRGBA(1, 1, 1, w.opacity)
	dc.DrawString(w.text, x, y)

	var out bytes.Buffer
	if err := png.Encode(&out, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode watermarked image: %w", err)
	}
	return out.Bytes(), nil
}
