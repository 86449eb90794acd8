// Package logo renders a PNG image as rows of colored half-block characters.
package logo

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/fatih/color"
)

// DefaultWidth is the logo width in terminal columns.
const DefaultWidth = 12

// ErrEmpty is returned for images with no pixels.
var ErrEmpty = errors.New("logo image is empty")

// Pixels with alpha below this are drawn as background.
const alphaCutoff = 0x8000

// Load reads the PNG at path and renders it width columns wide.
// Each text row covers two pixel rows: the upper pixel is the foreground
// of "▀" and the lower pixel its background.
func Load(path string, width int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", path, err)
	}
	return Render(img, width)
}

// Render scales img to width columns with nearest-neighbour sampling.
func Render(img image.Image, width int) ([]string, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmpty
	}
	if width <= 0 {
		width = DefaultWidth
	}
	height := (b.Dy()*width + b.Dx() - 1) / b.Dx()
	if height%2 == 1 {
		height++
	}

	sample := func(x, y int) (r, g, bl uint8, ok bool) {
		sx := b.Min.X + x*b.Dx()/width
		sy := b.Min.Y + y*b.Dy()/height
		if sy >= b.Max.Y {
			return 0, 0, 0, false
		}
		cr, cg, cb, ca := img.At(sx, sy).RGBA()
		if ca < alphaCutoff {
			return 0, 0, 0, false
		}
		// RGBA is alpha-premultiplied; undo it for terminal colors.
		return uint8(cr * 0xffff / ca >> 8), uint8(cg * 0xffff / ca >> 8), uint8(cb * 0xffff / ca >> 8), true
	}

	rows := make([]string, 0, height/2)
	for y := 0; y < height; y += 2 {
		var sb strings.Builder
		for x := range width {
			tr, tg, tb, top := sample(x, y)
			br, bg, bb, bottom := sample(x, y+1)
			switch {
			case top && bottom:
				sb.WriteString(color.RGB(int(tr), int(tg), int(tb)).AddBgRGB(int(br), int(bg), int(bb)).Sprint("▀"))
			case top:
				sb.WriteString(color.RGB(int(tr), int(tg), int(tb)).Sprint("▀"))
			case bottom:
				sb.WriteString(color.RGB(int(br), int(bg), int(bb)).Sprint("▄"))
			default:
				sb.WriteByte(' ')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows, nil
}
