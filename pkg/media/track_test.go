package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/browserdesk/browserdesk/pkg/logger"
)

// newTestAdapter builds an adapter without a codec: Next and Ingest
// never touch the encoder.
func newTestAdapter(w, h int, dur time.Duration) *Adapter {
	return &Adapter{
		width:       w,
		height:      h,
		frameDur:    dur,
		placeholder: errorFrame(w, h),
		log:         logger.New(false),
	}
}

func encodeJPEG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNextPlaceholderBeforeFirstCapture(t *testing.T) {
	a := newTestAdapter(64, 48, 30*time.Millisecond)
	f := a.Next()
	if f.Image != a.placeholder {
		t.Error("expected the placeholder before any capture")
	}
	b := f.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("placeholder size %vx%v, want 64x48", b.Dx(), b.Dy())
	}
}

func TestNextPtsMonotonicFixedStep(t *testing.T) {
	const dur = 30 * time.Millisecond
	a := newTestAdapter(32, 32, dur)
	for i := 0; i < 5; i++ {
		f := a.Next()
		if f.PTS != time.Duration(i)*dur {
			t.Fatalf("pts[%d] = %v, want %v", i, f.PTS, time.Duration(i)*dur)
		}
		if f.Duration != dur {
			t.Fatalf("duration = %v, want %v", f.Duration, dur)
		}
	}
}

func TestIngestRescalesToTrackResolution(t *testing.T) {
	a := newTestAdapter(64, 48, 30*time.Millisecond)
	// source frame is larger than the negotiated track size
	a.Ingest(encodeJPEG(t, 200, 100, color.RGBA{R: 255, A: 255}))
	f := a.Next()
	if f.Image == a.placeholder {
		t.Fatal("ingested frame expected, got placeholder")
	}
	b := f.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("frame size %vx%v, want 64x48", b.Dx(), b.Dy())
	}
}

func TestMarkFailureFallsBackToPlaceholder(t *testing.T) {
	a := newTestAdapter(32, 32, 30*time.Millisecond)
	a.Ingest(encodeJPEG(t, 32, 32, color.White))
	if a.Next().Image == a.placeholder {
		t.Fatal("fresh capture should be served")
	}
	a.MarkFailure()
	if a.Next().Image != a.placeholder {
		t.Error("placeholder expected after a failed capture")
	}
	// a new good capture recovers
	a.Ingest(encodeJPEG(t, 32, 32, color.White))
	if a.Next().Image == a.placeholder {
		t.Error("fresh capture should clear the failure state")
	}
}

func TestIngestGarbageMarksFailure(t *testing.T) {
	a := newTestAdapter(32, 32, 30*time.Millisecond)
	a.Ingest([]byte("not a jpeg"))
	if a.Next().Image != a.placeholder {
		t.Error("placeholder expected after a decode failure")
	}
}

func TestPlaceholderCarriesMarker(t *testing.T) {
	img := errorFrame(64, 48)
	red := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 128 && img.Pix[i+1] < 64 {
			red++
		}
	}
	if red == 0 {
		t.Error("no red marker pixels in the placeholder")
	}
}
