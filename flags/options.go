package flags

import "github.com/qrtx/qrtx/logging"

// EncodeOptions configures one `qrtx encode` invocation.
type EncodeOptions struct {
	InputPath  string
	OutputPath string

	Mode        string // "v0" or "v1"
	PayloadSize int
	Redundancy  float64
	PixelScale  int
	GIF         bool
	DelayMS     int
	Terminal    bool
	Halftone    string
	LogLevel    int
}

// NewEncodeOptions returns EncodeOptions populated with the standard
// wire-format defaults. Redundancy is left at 0 ("unset") so encoder.
// EncodeFile can pick its mode-appropriate default (file/GIF vs.
// terminal) unless the caller passes --redundancy explicitly.
func NewEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Mode:       "v0",
		PixelScale: 8,
		DelayMS:    250,
		LogLevel:   logging.LevelInfo,
	}
}

// DecodeOptions configures one `qrtx decode` invocation.
type DecodeOptions struct {
	InputPath string // PNG directory, or GIF file when GIF is set
	GIF       bool
	OutputDir string
	LogLevel  int
}

// NewDecodeOptions returns DecodeOptions with its defaults.
func NewDecodeOptions() *DecodeOptions {
	return &DecodeOptions{
		OutputDir: ".",
		LogLevel:  logging.LevelInfo,
	}
}
