package encoder

import (
	"image"
	"testing"
)

func TestRgbaToI420PlaneValues(t *testing.T) {
	const w, h = 4, 4
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// solid white
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	dst := make([]byte, w*h*3/2)
	rgbaToI420(dst, img, w, h)

	// white: Y=235, U=V=128
	for i := 0; i < w*h; i++ {
		if dst[i] != 235 {
			t.Fatalf("Y[%d] = %d, want 235", i, dst[i])
		}
	}
	for i := w * h; i < len(dst); i++ {
		if dst[i] != 128 {
			t.Fatalf("chroma[%d] = %d, want 128", i, dst[i])
		}
	}
}

func TestRgbaToI420Black(t *testing.T) {
	const w, h = 2, 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dst := make([]byte, w*h*3/2)
	rgbaToI420(dst, img, w, h)
	if dst[0] != 16 {
		t.Errorf("black Y = %d, want 16", dst[0])
	}
	if dst[4] != 128 || dst[5] != 128 {
		t.Errorf("black chroma = %v, want 128", dst[4:])
	}
}
