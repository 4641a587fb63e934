// Package vpx wraps libvpx for realtime VP8 encoding of I420 frames.
package vpx

/*
#cgo pkg-config: vpx

#include "vpx/vpx_encoder.h"
#include "vpx/vpx_image.h"
#include "vpx/vp8cx.h"

#include <string.h>

static vpx_codec_err_t vp8_config_default(vpx_codec_enc_cfg_t *cfg) {
	return vpx_codec_enc_config_default(vpx_codec_vp8_cx(), cfg, 0);
}
static vpx_codec_err_t vp8_init(vpx_codec_ctx_t *codec, vpx_codec_enc_cfg_t *cfg) {
	return vpx_codec_enc_init(codec, vpx_codec_vp8_cx(), cfg, 0);
}

typedef struct FrameBuffer {
	void *ptr;
	int size;
} FrameBuffer;

static FrameBuffer next_frame(vpx_codec_ctx_t *codec, vpx_codec_iter_t *iter) {
	FrameBuffer fb = {NULL, 0};
	const vpx_codec_cx_pkt_t *pkt = vpx_codec_get_cx_data(codec, iter);
	if (pkt != NULL && pkt->kind == VPX_CODEC_CX_FRAME_PKT) {
		fb.ptr = pkt->data.frame.buf;
		fb.size = pkt->data.frame.sz;
	}
	return fb;
}

static int plane_width(const vpx_image_t *img, int plane) {
	if (plane > 0 && img->x_chroma_shift > 0)
		return (img->d_w + 1) >> img->x_chroma_shift;
	return img->d_w;
}

static int plane_height(const vpx_image_t *img, int plane) {
	if (plane > 0 && img->y_chroma_shift > 0)
		return (img->d_h + 1) >> img->y_chroma_shift;
	return img->d_h;
}

static void img_read(vpx_image_t *dst, const unsigned char *src) {
	for (int plane = 0; plane < 3; ++plane) {
		unsigned char *buf = dst->planes[plane];
		const int stride = dst->stride[plane];
		const int w = plane_width(dst, plane);
		const int h = plane_height(dst, plane);
		for (int y = 0; y < h; ++y) {
			memcpy(buf, src, w);
			buf += stride;
			src += w;
		}
	}
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type Options struct {
	// target bitrate, kbps
	Bitrate uint
	// forced keyframe interval, frames; 0 disables forcing
	KeyframeInterval uint
}

// Encoder is a VP8 libvpx encoder context. Not safe for concurrent use.
type Encoder struct {
	frameCount C.int
	image      C.vpx_image_t
	codecCtx   C.vpx_codec_ctx_t
	kfi        C.int
	closed     bool
}

func NewEncoder(width, height int, opts Options) (*Encoder, error) {
	if opts.Bitrate == 0 {
		opts.Bitrate = 1200
	}
	enc := Encoder{kfi: C.int(opts.KeyframeInterval)}

	if C.vpx_img_alloc(&enc.image, C.VPX_IMG_FMT_I420, C.uint(width), C.uint(height), 1) == nil {
		return nil, fmt.Errorf("vpx_img_alloc failed")
	}
	var cfg C.vpx_codec_enc_cfg_t
	if C.vp8_config_default(&cfg) != 0 {
		return nil, fmt.Errorf("failed to get default codec config")
	}
	cfg.g_w = C.uint(width)
	cfg.g_h = C.uint(height)
	cfg.rc_target_bitrate = C.uint(opts.Bitrate)
	cfg.g_error_resilient = 1
	if C.vp8_init(&enc.codecCtx, &cfg) != 0 {
		C.vpx_img_free(&enc.image)
		return nil, fmt.Errorf("failed to initialize the encoder")
	}
	return &enc, nil
}

// Encode consumes one I420 image and returns the encoded frame, which
// may be empty while the codec buffers.
func (e *Encoder) Encode(yuv []byte) []byte {
	var iter C.vpx_codec_iter_t
	C.img_read(&e.image, (*C.uchar)(unsafe.Pointer(&yuv[0])))

	var flags C.vpx_enc_frame_flags_t
	if e.kfi > 0 && e.frameCount%e.kfi == 0 {
		flags |= C.VPX_EFLAG_FORCE_KF
	}
	if C.vpx_codec_encode(&e.codecCtx, &e.image, C.vpx_codec_pts_t(e.frameCount), 1, flags, C.VPX_DL_REALTIME) != 0 {
		return nil
	}
	e.frameCount++

	fb := C.next_frame(&e.codecCtx, &iter)
	if fb.ptr == nil {
		return nil
	}
	return C.GoBytes(fb.ptr, fb.size)
}

func (e *Encoder) Shutdown() error {
	if e.closed {
		return nil
	}
	e.closed = true
	C.vpx_img_free(&e.image)
	if C.vpx_codec_destroy(&e.codecCtx) != 0 {
		return fmt.Errorf("failed to destroy the codec context")
	}
	return nil
}
