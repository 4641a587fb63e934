package media

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const placeholderText = "CAPTURE ERROR"

// errorFrame renders the fixed-size substitute frame shown while the
// browser can't be captured: near-black with a red marker.
func errorFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 16, G: 16, B: 16, A: 255}), image.Point{}, draw.Src)

	red := image.NewUniform(color.RGBA{R: 220, A: 255})
	face := basicfont.Face7x13
	textW := font.MeasureString(face, placeholderText).Ceil()
	d := font.Drawer{
		Dst:  img,
		Src:  red,
		Face: face,
		Dot:  fixed.P((w-textW)/2, h/2),
	}
	d.DrawString(placeholderText)

	// a thin red frame so the marker reads even at tiny render sizes
	for x := 0; x < w; x++ {
		img.Set(x, 0, red.C)
		img.Set(x, h-1, red.C)
	}
	for y := 0; y < h; y++ {
		img.Set(0, y, red.C)
		img.Set(w-1, y, red.C)
	}
	return img
}
