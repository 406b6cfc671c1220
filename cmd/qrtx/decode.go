package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qrtx/qrtx/decoder"
	"github.com/qrtx/qrtx/flags"
	"github.com/qrtx/qrtx/logging"
	"github.com/qrtx/qrtx/qr"
	"github.com/qrtx/qrtx/qr/gifio"
	"github.com/qrtx/qrtx/qr/pngio"
	"github.com/qrtx/qrtx/qr/rasterqr"
)

func runDecode(args []string) error {
	opts := flags.NewDecodeOptions()
	if err := flags.ParseDecode(args, opts); err != nil {
		return err
	}
	logger := logging.New(opts.LogLevel, "")

	source, err := openSource(opts)
	if err != nil {
		return err
	}

	d := decoder.New(rasterqr.Scanner{}, logger)
	file, err := decoder.ScanSource(d, source)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(opts.OutputDir, file.Filename)
	if err := os.WriteFile(outPath, file.Content, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Infof("wrote %s (%d bytes)", outPath, len(file.Content))
	return nil
}

func openSource(opts *flags.DecodeOptions) (qr.FrameSource, error) {
	if opts.GIF {
		f, err := os.Open(opts.InputPath)
		if err != nil {
			return nil, fmt.Errorf("open gif: %w", err)
		}
		defer f.Close()
		return gifio.NewSource(f)
	}
	return pngio.NewSource(opts.InputPath)
}
