package encoder

import "image"

// rgbaToI420 packs an RGBA image into planar I420 (BT.601 studio swing).
// The dst buffer must hold w*h*3/2 bytes; the image must be w x h.
func rgbaToI420(dst []byte, src *image.RGBA, w, h int) {
	ySize := w * h
	cSize := ySize / 4
	dy := dst[:ySize]
	du := dst[ySize : ySize+cSize]
	dv := dst[ySize+cSize : ySize+2*cSize]

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			r, g, b := int32(row[x*4]), int32(row[x*4+1]), int32(row[x*4+2])
			dy[y*w+x] = uint8((66*r+129*g+25*b)>>8 + 16)
		}
	}
	for y := 0; y < h; y += 2 {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x += 2 {
			r, g, b := int32(row[x*4]), int32(row[x*4+1]), int32(row[x*4+2])
			ci := (y/2)*(w/2) + x/2
			du[ci] = uint8((-38*r-74*g+112*b)>>8 + 128)
			dv[ci] = uint8((112*r-94*g-18*b)>>8 + 128)
		}
	}
}
