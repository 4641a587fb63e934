package encoder

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/browserdesk/browserdesk/pkg/logger"
)

type (
	// Encoder turns one I420 image into one encoded video frame.
	Encoder interface {
		Encode(yuv []byte) []byte
		Shutdown() error
	}
)

// Video converts RGBA frames to I420 and runs them through the codec.
// Safe for use from one producer goroutine at a time.
type Video struct {
	codec   Encoder
	yuv     []byte
	w, h    int
	log     *logger.Logger
	stopped atomic.Bool
	mu      sync.Mutex
}

func NewVideoEncoder(codec Encoder, w, h int, log *logger.Logger) *Video {
	return &Video{codec: codec, yuv: make([]byte, w*h*3/2), w: w, h: h, log: log}
}

// Encode returns the encoded frame or nil when the codec produced
// nothing for this input (or the encoder is stopped).
func (v *Video) Encode(frame *image.RGBA) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped.Load() {
		return nil
	}
	rgbaToI420(v.yuv, frame, v.w, v.h)
	if bytes := v.codec.Encode(v.yuv); len(bytes) > 0 {
		return bytes
	}
	return nil
}

func (v *Video) Stop() {
	v.stopped.Store(true)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.codec.Shutdown(); err != nil {
		v.log.Error().Err(err).Msg("failed to close the encoder")
	}
}
