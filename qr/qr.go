// Package qr defines the external collaborator contracts the core codec
// depends on but never implements itself: QR symbol rendering and
// scanning, and raster frame sources/sinks for whatever container
// carries the frames (PNG directory, GIF, terminal, camera). Concrete
// adapters live in the qr/rasterqr, qr/gifio, qr/pngio and qr/termio
// subpackages.
package qr

import "image"

// Version is a QR symbol size class, 1..40.
type Version int

// Renderer turns bytes into a QR symbol image. Implementations add a
// 4-module quiet zone and default to error-correction level M.
type Renderer interface {
	// Render encodes data into a QR symbol. If version is non-zero, the
	// renderer is forced to that specific symbol version (used by the
	// consistency controller) and must fail rather than silently
	// choose a larger one. pixelScale is the module-to-pixel ratio.
	// Render returns the rendered image and the symbol version actually
	// used.
	Render(data []byte, version Version, pixelScale int) (image.Image, Version, error)

	// FitsInTerminal reports whether data's rendered symbol (including
	// quiet zone) fits the caller's current terminal, minus a 6-line
	// reserve for header/footer.
	FitsInTerminal(data []byte) (bool, error)
}

// Scanner recovers the bytes encoded in a QR symbol from a raster frame.
type Scanner interface {
	// Decode returns the bytes encoded by the first QR symbol found in
	// img. Implementations must retry with a luminance inversion before
	// giving up, since cameras routinely capture inverted symbols.
	Decode(img image.Image) ([]byte, error)
}

// Frame is one raster frame produced by a FrameSource or consumed by a
// FrameSink, alongside any per-frame metadata a sink needs (e.g. GIF
// frame delay).
type Frame struct {
	Image image.Image
	Delay int // milliseconds; meaningful only to animated sinks
}

// FrameSource produces a lazy, finite sequence of raster frames. The
// interface has no way to restart a source: the pngio and gifio sources
// are consumed in a single pass, and cannot be iterated a second time.
type FrameSource interface {
	// Next returns the next frame, or ok=false once the source is
	// exhausted.
	Next() (frame Frame, ok bool, err error)
}

// FrameSink consumes raster frames sequentially, preserving the order
// they are given, and finalizes its container (if any) on Close.
type FrameSink interface {
	Put(frame Frame) error
	Close() error
}
