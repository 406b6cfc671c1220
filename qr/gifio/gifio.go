// Package gifio implements qr.FrameSource and qr.FrameSink backed by an
// animated GIF container, using the standard library's image/gif.
// Adapted from encode_file_to_gif and decode_from_gif in the original
// implementation (encode.rs, decode.rs), which used the Rust `image`
// crate's GifEncoder/GifDecoder the same way.
package gifio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/qrtx/qrtx/qr"
)

// Sink writes frames to an animated GIF with infinite repeat.
type Sink struct {
	w   io.Writer
	gif gif.GIF
}

var _ qr.FrameSink = (*Sink)(nil)

// NewSink opens a GIF sink writing to w. repeat=0 means loop forever,
// matching image.codecs.gif.Repeat::Infinite in the original.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w, gif: gif.GIF{LoopCount: 0}}
}

func (s *Sink) Put(frame qr.Frame) error {
	paletted := toPaletted(frame.Image)
	delay := frame.Delay / 10 // GIF delay unit is 1/100s
	if delay < 1 {
		delay = 1
	}
	s.gif.Image = append(s.gif.Image, paletted)
	s.gif.Delay = append(s.gif.Delay, delay)
	return nil
}

func (s *Sink) Close() error {
	return gif.EncodeAll(s.w, &s.gif)
}

func toPaletted(img image.Image) *image.Paletted {
	bounds := img.Bounds()
	paletted := image.NewPaletted(bounds, color.Palette{color.Black, color.White})
	draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)
	return paletted
}

// Source reads frames back out of an animated GIF, one per call to Next.
type Source struct {
	frames *gif.GIF
	index  int
}

var _ qr.FrameSource = (*Source)(nil)

// NewSource decodes all frames of the GIF read from r up front.
func NewSource(r io.Reader) (*Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("gifio: decode: %w", err)
	}
	return &Source{frames: g}, nil
}

func (s *Source) Next() (qr.Frame, bool, error) {
	if s.index >= len(s.frames.Image) {
		return qr.Frame{}, false, nil
	}
	img := s.frames.Image[s.index]
	delay := s.frames.Delay[s.index] * 10
	s.index++
	return qr.Frame{Image: img, Delay: delay}, true, nil
}
