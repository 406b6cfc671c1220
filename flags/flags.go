// Package flags parses the qrtx command-line flags with pflag, the same
// library and positional-argument convention flags/flags.go used for
// the single-command wireguard-go CLI, generalized here to two
// subcommands.
package flags

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// ParseEncode parses the flags for `qrtx encode`, populating opts. args
// excludes the program name and the "encode" subcommand word.
func ParseEncode(args []string, opts *EncodeOptions) error {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qrtx encode [flags] <input-file>\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.Mode, "mode", opts.Mode, "Transport: v0 (fixed chunks) or v1 (RaptorQ fountain)")
	fs.IntVar(&opts.PayloadSize, "payload-size", opts.PayloadSize, "Initial payload size budget per QR symbol (0 = default for file or terminal output)")
	fs.Float64Var(&opts.Redundancy, "redundancy", opts.Redundancy, "Fountain packet-count multiplier (v1 only)")
	fs.IntVar(&opts.PixelScale, "pixel-scale", opts.PixelScale, "Module-to-pixel ratio for rendered QR images")
	fs.BoolVar(&opts.GIF, "gif", opts.GIF, "Write an animated GIF instead of a PNG directory")
	fs.IntVar(&opts.DelayMS, "delay-ms", opts.DelayMS, "Per-frame delay in milliseconds, for GIF frames and the terminal carousel")
	fs.BoolVar(&opts.Terminal, "terminal", opts.Terminal, "Fit packets to the current terminal instead of rendering images")
	fs.StringVar(&opts.Halftone, "halftone", opts.Halftone, "Background image to blend into rendered QR symbols")
	fs.StringVarP(&opts.OutputPath, "output", "o", opts.OutputPath, "Output path (directory for PNGs, file for GIF)")
	fs.IntVarP(&opts.LogLevel, "verbosity", "v", opts.LogLevel, "Log level: 0=silent 1=error 2=info 3=debug")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("must pass exactly one input file, got %d", fs.NArg())
	}
	opts.InputPath = fs.Arg(0)
	return nil
}

// ParseDecode parses the flags for `qrtx decode`, populating opts. args
// excludes the program name and the "decode" subcommand word.
func ParseDecode(args []string, opts *DecodeOptions) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qrtx decode [flags] <input-path>\n")
		fs.PrintDefaults()
	}

	fs.BoolVar(&opts.GIF, "gif", opts.GIF, "Read input-path as an animated GIF instead of a PNG directory")
	fs.StringVarP(&opts.OutputDir, "output", "o", opts.OutputDir, "Directory to write the reassembled file into")
	fs.IntVarP(&opts.LogLevel, "verbosity", "v", opts.LogLevel, "Log level: 0=silent 1=error 2=info 3=debug")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("must pass exactly one input path, got %d", fs.NArg())
	}
	opts.InputPath = fs.Arg(0)
	return nil
}
