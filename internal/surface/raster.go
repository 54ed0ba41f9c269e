package surface

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// Errors returned by raster operations.
var (
	ErrClosed       = errors.New("surface is closed")
	ErrBadStateSize = errors.New("state blob does not match surface dimensions")
)

// bytesPerPixel is the RGBA channel count.
const bytesPerPixel = 4

// Raster is an in-memory RGBA pixel surface. All operations are safe for
// concurrent use.
type Raster struct {
	mu     sync.Mutex
	width  int
	height int
	pix    []byte
	closed bool
}

// NewRaster creates a raster surface of the given dimensions, all pixels
// transparent black.
func NewRaster(width, height int) *Raster {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Raster{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*bytesPerPixel),
	}
}

// Bounds returns the surface dimensions.
func (r *Raster) Bounds() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Valid reports whether the surface has not been closed.
func (r *Raster) Valid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed
}

// Close tears down the surface. Commands backed by it become stale.
func (r *Raster) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// State returns a copy of the raw pixel buffer.
func (r *Raster) State() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	out := make([]byte, len(r.pix))
	copy(out, r.pix)
	return out, nil
}

// SetState replaces the pixel buffer from a structured blob.
func (r *Raster) SetState(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if len(data) != len(r.pix) {
		return ErrBadStateSize
	}
	copy(r.pix, data)
	return nil
}

// EncodeState returns the current state as base64-encoded PNG.
func (r *Raster) EncodeState() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}

	img := &image.NRGBA{
		Pix:    r.pix,
		Stride: r.width * bytesPerPixel,
		Rect:   image.Rect(0, 0, r.width, r.height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode surface state: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ApplyEncoded decodes a base64 PNG representation and applies it.
func (r *Raster) ApplyEncoded(ctx context.Context, encoded string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode surface state: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode surface state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	bounds := img.Bounds()
	if bounds.Dx() != r.width || bounds.Dy() != r.height {
		return ErrBadStateSize
	}

	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			cr, cg, cb, ca := c.RGBA()
			off := (y*r.width + x) * bytesPerPixel
			r.pix[off+0] = byte(cr >> 8)
			r.pix[off+1] = byte(cg >> 8)
			r.pix[off+2] = byte(cb >> 8)
			r.pix[off+3] = byte(ca >> 8)
		}
	}
	return nil
}

// At returns the RGBA channels of the pixel at (x, y).
func (r *Raster) At(x, y int) ([4]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return [4]byte{}, ErrClosed
	}
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return [4]byte{}, fmt.Errorf("pixel (%d,%d) out of bounds %dx%d", x, y, r.width, r.height)
	}
	off := (y*r.width + x) * bytesPerPixel
	return [4]byte{r.pix[off], r.pix[off+1], r.pix[off+2], r.pix[off+3]}, nil
}

// Region returns a copy of the pixels in the given rect, clamped to bounds.
func (r *Raster) Region(x, y, w, h int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	x, y, w, h = r.clamp(x, y, w, h)
	out := make([]byte, w*h*bytesPerPixel)
	for row := 0; row < h; row++ {
		src := ((y+row)*r.width + x) * bytesPerPixel
		dst := row * w * bytesPerPixel
		copy(out[dst:dst+w*bytesPerPixel], r.pix[src:src+w*bytesPerPixel])
	}
	return out, nil
}

// SetRegion writes previously captured pixels back into the given rect.
func (r *Raster) SetRegion(x, y, w, h int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	x, y, w, h = r.clamp(x, y, w, h)
	if len(data) != w*h*bytesPerPixel {
		return ErrBadStateSize
	}
	for row := 0; row < h; row++ {
		dst := ((y+row)*r.width + x) * bytesPerPixel
		src := row * w * bytesPerPixel
		copy(r.pix[dst:dst+w*bytesPerPixel], data[src:src+w*bytesPerPixel])
	}
	return nil
}

// Fill sets every pixel in the given rect to the color, clamped to bounds.
func (r *Raster) Fill(x, y, w, h int, color [4]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	x, y, w, h = r.clamp(x, y, w, h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			off := ((y+row)*r.width + x + col) * bytesPerPixel
			r.pix[off+0] = color[0]
			r.pix[off+1] = color[1]
			r.pix[off+2] = color[2]
			r.pix[off+3] = color[3]
		}
	}
	return nil
}

// AdjustBrightness adds delta to the RGB channels of every pixel, clamping
// each channel to [0,255]. Alpha is untouched.
func (r *Raster) AdjustBrightness(delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	for off := 0; off < len(r.pix); off += bytesPerPixel {
		for ch := 0; ch < 3; ch++ {
			v := int(r.pix[off+ch]) + delta
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			r.pix[off+ch] = byte(v)
		}
	}
	return nil
}

// clamp restricts a rect to the surface bounds. Caller holds the lock.
func (r *Raster) clamp(x, y, w, h int) (int, int, int, int) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > r.width {
		w = r.width - x
	}
	if y+h > r.height {
		h = r.height - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return x, y, w, h
}
