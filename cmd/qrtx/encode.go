package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qrtx/qrtx/encoder"
	"github.com/qrtx/qrtx/flags"
	"github.com/qrtx/qrtx/logging"
	"github.com/qrtx/qrtx/qr"
	"github.com/qrtx/qrtx/qr/gifio"
	"github.com/qrtx/qrtx/qr/pngio"
	"github.com/qrtx/qrtx/qr/rasterqr"
	"github.com/qrtx/qrtx/qr/termio"
)

func runEncode(args []string) error {
	opts := flags.NewEncodeOptions()
	if err := flags.ParseEncode(args, opts); err != nil {
		return err
	}
	logger := logging.New(opts.LogLevel, "")

	mode, err := parseMode(opts.Mode)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	filename := filepath.Base(opts.InputPath)

	renderer := rasterqr.Renderer{}
	result, err := encoder.EncodeFile(content, filename, encoder.Options{
		Mode:        mode,
		PayloadSize: opts.PayloadSize,
		Redundancy:  opts.Redundancy,
		PixelScale:  opts.PixelScale,
		Terminal:    opts.Terminal,
		Renderer:    renderer,
	})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	logger.Infof("encoded %q into %d packets at payload size %d", filename, len(result.Packets), result.EffectivePayloadSize)

	if opts.Terminal {
		return emitTerminal(result, opts)
	}

	frames, err := renderFrames(result, renderer, opts)
	if err != nil {
		return err
	}

	if opts.GIF {
		return emitGIF(frames, filename, opts)
	}
	return emitPNGs(frames, filename, opts)
}

func parseMode(s string) (encoder.Mode, error) {
	switch s {
	case "v0", "":
		return encoder.ModeStandard, nil
	case "v1":
		return encoder.ModeFountain, nil
	default:
		return 0, fmt.Errorf("unknown mode %q, want v0 or v1", s)
	}
}

func emitTerminal(result encoder.Result, opts *flags.EncodeOptions) error {
	frames, err := encoder.RenderTerminalFrames(result.Packets, termio.Render)
	if err != nil {
		return fmt.Errorf("render terminal frames: %w", err)
	}
	for i, frame := range frames {
		fmt.Println(frame)
		if i < len(frames)-1 {
			termio.Delay(opts.DelayMS)
		}
	}
	return nil
}

func renderFrames(result encoder.Result, renderer rasterqr.Renderer, opts *flags.EncodeOptions) ([]qr.Frame, error) {
	if opts.Halftone == "" {
		frames, err := encoder.RenderFrames(result.Packets, renderer, opts.PixelScale)
		if err != nil {
			return nil, fmt.Errorf("render frames: %w", err)
		}
		return frames, nil
	}

	background, err := loadBackground(opts.Halftone)
	if err != nil {
		return nil, err
	}

	frames := make([]qr.Frame, len(result.Packets))
	for i, p := range result.Packets {
		text, err := p.EncodeText()
		if err != nil {
			return nil, err
		}
		img, _, err := rasterqr.RenderHalftone([]byte(text), background, opts.PixelScale)
		if err != nil {
			return nil, fmt.Errorf("render halftone frame %d: %w", i, err)
		}
		frames[i] = qr.Frame{Image: img}
	}
	return frames, nil
}

func loadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open halftone background: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode halftone background: %w", err)
	}
	return img, nil
}

func emitGIF(frames []qr.Frame, filename string, opts *flags.EncodeOptions) error {
	out := opts.OutputPath
	if out == "" {
		out = filename + ".gif"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create gif output: %w", err)
	}
	defer f.Close()

	sink := gifio.NewSink(f)
	for _, frame := range frames {
		frame.Delay = opts.DelayMS
		if err := sink.Put(frame); err != nil {
			return fmt.Errorf("write gif frame: %w", err)
		}
	}
	return sink.Close()
}

func emitPNGs(frames []qr.Frame, filename string, opts *flags.EncodeOptions) error {
	outDir := opts.OutputPath
	if outDir == "" {
		outDir = "."
	}
	sink, err := pngio.NewSink(outDir, filename)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if err := sink.Put(frame); err != nil {
			return fmt.Errorf("write png frame: %w", err)
		}
	}
	return sink.Close()
}
