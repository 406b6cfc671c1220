// Package encoder assembles the envelope, capacity-fit, chunker and
// fountain packages into the two end-to-end encode paths, and
// implements the symbol-version consistency controller that locks every
// packet in a run to the QR version chosen for its first packet.
// Adapted from encode_file/encode_file_for_terminal in encode.rs.
package encoder

import (
	"fmt"

	"github.com/qrtx/qrtx/capacity"
	"github.com/qrtx/qrtx/chunker"
	"github.com/qrtx/qrtx/envelope"
	"github.com/qrtx/qrtx/errs"
	"github.com/qrtx/qrtx/fountain"
	"github.com/qrtx/qrtx/packet"
	"github.com/qrtx/qrtx/qr"
)

// Mode selects the wire transport: fixed-partition chunks or a RaptorQ
// fountain stream.
type Mode int

const (
	ModeStandard Mode = iota
	ModeFountain
)

// DefaultRedundancy is the fountain packet-count multiplier used when
// Options.Redundancy is zero for file/GIF output.
const DefaultRedundancy = 1.5

// DefaultTerminalRedundancy is the fountain packet-count multiplier used
// when Options.Redundancy is zero for a terminal carousel, which has no
// fixed frame count and so needs a larger repair margin against missed
// frames than a file or GIF does.
const DefaultTerminalRedundancy = 2.0

// Options configures one encode run.
type Options struct {
	Mode Mode

	// PayloadSize overrides capacity.FileParams.Start/TerminalParams.Start
	// when positive; the fit loop still searches down to the floor.
	PayloadSize int

	// Redundancy is the fountain packet multiplier R (ModeFountain only).
	// Zero (or negative) means DefaultRedundancy, or
	// DefaultTerminalRedundancy when Terminal is set.
	Redundancy float64

	// PixelScale is the module-to-pixel ratio for rendered images.
	PixelScale int

	// Terminal fits candidates against the caller's terminal window
	// instead of a renderable QR image, and skips image rendering
	// entirely in favor of RenderTerminalFrames.
	Terminal bool

	Renderer qr.Renderer
}

// Result is one completed encode run: the wire packets in emission
// order, and the payload size the fit loop settled on.
type Result struct {
	Packets              []packet.Packet
	EffectivePayloadSize int
}

// EncodeFile packs content behind filename, compresses it, and splits
// it into wire packets using the configured transport.
func EncodeFile(content []byte, filename string, opts Options) (Result, error) {
	if opts.Renderer == nil {
		return Result{}, fmt.Errorf("encoder: Options.Renderer is required")
	}

	packed := envelope.Pack(content, filename)
	compressed, err := envelope.Compress(packed)
	if err != nil {
		return Result{}, err
	}

	switch opts.Mode {
	case ModeStandard:
		return encodeStandard(compressed, opts)
	case ModeFountain:
		return encodeFountain(compressed, opts)
	default:
		return Result{}, fmt.Errorf("encoder: unknown mode %d", opts.Mode)
	}
}

func fitParams(opts Options) capacity.Params {
	params := capacity.FileParams
	if opts.Terminal {
		params = capacity.TerminalParams
	}
	if opts.PayloadSize > 0 {
		params.Start = opts.PayloadSize
	}
	return params
}

func accepts(opts Options) capacity.Accepts {
	return func(text string) bool {
		if opts.Terminal {
			ok, err := opts.Renderer.FitsInTerminal([]byte(text))
			return err == nil && ok
		}
		_, _, err := opts.Renderer.Render([]byte(text), 0, opts.PixelScale)
		return err == nil
	}
}

func encodeStandard(compressed []byte, opts Options) (Result, error) {
	build := func(size int) (string, error) {
		packets, err := chunker.Split(compressed, size)
		if err != nil {
			return "", err
		}
		return packets[0].EncodeText()
	}

	effective, err := capacity.Fit(fitParams(opts), build, accepts(opts))
	if err != nil {
		return Result{}, err
	}

	packets, err := chunker.Split(compressed, effective)
	if err != nil {
		return Result{}, err
	}
	return Result{Packets: packets, EffectivePayloadSize: effective}, nil
}

func encodeFountain(compressed []byte, opts Options) (Result, error) {
	redundancy := opts.Redundancy
	if redundancy <= 0 {
		if opts.Terminal {
			redundancy = DefaultTerminalRedundancy
		} else {
			redundancy = DefaultRedundancy
		}
	}

	build := func(size int) (string, error) {
		symbolSize, err := fountainSymbolSize(size)
		if err != nil {
			return "", err
		}
		enc, err := fountain.NewEncoder(compressed, symbolSize)
		if err != nil {
			return "", err
		}
		return enc.Symbol(0).EncodeText()
	}

	effective, err := capacity.Fit(fitParams(opts), build, accepts(opts))
	if err != nil {
		return Result{}, err
	}

	symbolSize, err := fountainSymbolSize(effective)
	if err != nil {
		return Result{}, err
	}
	enc, err := fountain.NewEncoder(compressed, symbolSize)
	if err != nil {
		return Result{}, err
	}

	packets := enc.GeneratePackets(redundancy)
	return Result{Packets: packets, EffectivePayloadSize: effective}, nil
}

// fountainSymbolSize derives the RaptorQ symbol size from a candidate
// QR payload budget: the v1 header eats into it, and RaptorQ requires
// an even symbol length.
func fountainSymbolSize(payloadSize int) (uint16, error) {
	size := payloadSize - packet.V1HeaderSize
	size -= size % 2
	if size < fountain.MinSymbolSize {
		return 0, fmt.Errorf("%w: derived fountain symbol size %d", errs.ErrPayloadTooSmall, size)
	}
	return uint16(size), nil
}

// RenderFrames renders packets to images, locking every packet after
// the first to the QR symbol version chosen for packet zero: a
// later packet that no longer fits that version is a hard error rather
// than a silent size bump, since every image of one transmission must
// share the same pixel dimensions.
func RenderFrames(packets []packet.Packet, renderer qr.Renderer, pixelScale int) ([]qr.Frame, error) {
	frames := make([]qr.Frame, len(packets))
	var locked qr.Version

	for i, p := range packets {
		text, err := p.EncodeText()
		if err != nil {
			return nil, err
		}

		img, version, err := renderer.Render([]byte(text), locked, pixelScale)
		if err != nil {
			if locked != 0 {
				return nil, fmt.Errorf("%w: packet %d no longer fits symbol version %d", errs.ErrSymbolCapacityExceeded, i, locked)
			}
			return nil, err
		}
		if locked == 0 {
			locked = version
		}

		frames[i] = qr.Frame{Image: img}
	}
	return frames, nil
}

// RenderTerminalFrames renders packets as half-block terminal text
// using render, the same signature as termio.Render.
func RenderTerminalFrames(packets []packet.Packet, render func(data []byte) (string, error)) ([]string, error) {
	out := make([]string, len(packets))
	for i, p := range packets {
		text, err := p.EncodeText()
		if err != nil {
			return nil, err
		}
		rendered, err := render([]byte(text))
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	return out, nil
}
