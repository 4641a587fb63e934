// Package media adapts the polled frame source to the continuous
// pull model of the real-time video track.
package media

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync/atomic"
	"time"

	"github.com/browserdesk/browserdesk/pkg/encoder"
	"github.com/browserdesk/browserdesk/pkg/encoder/vpx"
	"github.com/browserdesk/browserdesk/pkg/logger"
	pmedia "github.com/pion/webrtc/v4/pkg/media"
	xdraw "golang.org/x/image/draw"
)

// TimedFrame is one track frame with its presentation timestamp.
// Timestamps come from a fixed frame-duration clock, not capture time,
// so the consumer sees constant pacing.
type TimedFrame struct {
	Image    *image.RGBA
	PTS      time.Duration
	Duration time.Duration
}

// SampleWriter is the outbound side of the negotiated video track.
type SampleWriter interface {
	WriteSample(sample pmedia.Sample) error
}

// Adapter rescales every captured frame to the fixed track resolution
// and always has a frame to give: when no capture has landed yet (or
// the last one failed) it serves a "capture error" placeholder.
type Adapter struct {
	width, height int
	frameDur      time.Duration
	pts           time.Duration

	latest      atomic.Pointer[image.RGBA]
	failed      atomic.Bool
	placeholder *image.RGBA

	venc *encoder.Video
	log  *logger.Logger
}

func NewAdapter(w, h int, frameDur time.Duration, vopts vpx.Options, log *logger.Logger) (*Adapter, error) {
	codec, err := vpx.NewEncoder(w, h, vopts)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		width:       w,
		height:      h,
		frameDur:    frameDur,
		placeholder: errorFrame(w, h),
		venc:        encoder.NewVideoEncoder(codec, w, h, log),
		log:         log,
	}, nil
}

// Ingest decodes a captured JPEG still and makes it the current track
// image, rescaled to the track resolution whatever the source size.
func (a *Adapter) Ingest(jpegData []byte) {
	src, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		a.log.Warn().Err(err).Msg("frame decode")
		a.failed.Store(true)
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	a.latest.Store(dst)
	a.failed.Store(false)
}

// MarkFailure flips the adapter to the placeholder until the next
// successful capture.
func (a *Adapter) MarkFailure() { a.failed.Store(true) }

// Next always returns a frame: the latest capture, or the placeholder.
// Each call advances the presentation clock by one frame duration.
func (a *Adapter) Next() TimedFrame {
	img := a.latest.Load()
	if img == nil || a.failed.Load() {
		img = a.placeholder
	}
	f := TimedFrame{Image: img, PTS: a.pts, Duration: a.frameDur}
	a.pts += a.frameDur
	return f
}

// Run encodes frames at the track clock and pushes them to the sink
// until ctx is cancelled. Frame production is independent of the
// signaling state: it starts as soon as the track exists.
func (a *Adapter) Run(ctx context.Context, sink SampleWriter) {
	ticker := time.NewTicker(a.frameDur)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f := a.Next()
			data := a.venc.Encode(f.Image)
			if data == nil {
				continue
			}
			if err := sink.WriteSample(pmedia.Sample{Data: data, Duration: f.Duration}); err != nil {
				a.log.Error().Err(err).Msg("track write")
			}
		}
	}
}

// Stop releases the codec. Call after Run has exited.
func (a *Adapter) Stop() { a.venc.Stop() }
