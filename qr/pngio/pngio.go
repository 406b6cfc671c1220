// Package pngio implements qr.FrameSource and qr.FrameSink backed by a
// directory of numbered PNG files, adapted from encode_file's
// `<basename>_<NNNN>.png` naming convention and decode_from_images.
package pngio

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qrtx/qrtx/qr"
)

// Sink writes one PNG file per frame into a directory, named
// "<basename>_<NNNN>.png" with NNNN the 1-based, 4-digit frame index.
type Sink struct {
	dir      string
	basename string
	index    int
}

var _ qr.FrameSink = (*Sink)(nil)

// NewSink prepares dir (creating it if needed) to receive PNGs whose
// names derive from basename, with dots replaced by underscores.
func NewSink(dir, basename string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pngio: create output dir: %w", err)
	}
	clean := strings.ReplaceAll(basename, ".", "_")
	return &Sink{dir: dir, basename: clean}, nil
}

func (s *Sink) Put(frame qr.Frame) error {
	s.index++
	name := fmt.Sprintf("%s_%04d.png", s.basename, s.index)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("pngio: create %s: %w", name, err)
	}
	defer f.Close()

	if err := png.Encode(f, frame.Image); err != nil {
		return fmt.Errorf("pngio: encode %s: %w", name, err)
	}
	return nil
}

func (s *Sink) Close() error { return nil }

// Source reads every *.png file from a directory, in lexical filename
// order (the zero-padded index keeps this equal to emission order,
// though the decoder never relies on it — packets may arrive in any
// order).
type Source struct {
	paths []string
	index int
}

var _ qr.FrameSource = (*Source)(nil)

// NewSource lists the PNG files in dir.
func NewSource(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pngio: read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("pngio: no PNG files found in %s", dir)
	}
	return &Source{paths: paths}, nil
}

func (s *Source) Next() (qr.Frame, bool, error) {
	if s.index >= len(s.paths) {
		return qr.Frame{}, false, nil
	}
	path := s.paths[s.index]
	s.index++

	f, err := os.Open(path)
	if err != nil {
		return qr.Frame{}, false, fmt.Errorf("pngio: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return qr.Frame{}, false, fmt.Errorf("pngio: decode %s: %w", path, err)
	}
	return qr.Frame{Image: img}, true, nil
}
