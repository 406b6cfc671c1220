// Package rasterqr is the concrete qr.Renderer/qr.Scanner pair backed by
// github.com/skip2/go-qrcode (encode) and github.com/makiuchi-d/gozxing
// (decode), the Go-ecosystem analogs of the Rust `qrcode` and
// `rqrr`/OpenCV collaborators used in qr.rs and decode.rs.
package rasterqr

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	goqr "github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/qrtx/qrtx/errs"
	"github.com/qrtx/qrtx/qr"
)

const quietZoneModules = 4

// Renderer renders QR symbols with error-correction level M, a 4-module
// quiet zone, and optional halftone background blending.
type Renderer struct{}

var _ qr.Renderer = Renderer{}

func (Renderer) Render(data []byte, version qr.Version, pixelScale int) (image.Image, qr.Version, error) {
	var code *goqr.QRCode
	var err error

	if version > 0 {
		code, err = goqr.NewWithForcedVersion(string(data), int(version), goqr.Medium)
	} else {
		code, err = goqr.New(string(data), goqr.Medium)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("rasterqr: render: %w", err)
	}

	modules := moduleCount(code.VersionNumber)
	totalSize := (modules + 2*quietZoneModules) * pixelScale

	return code.Image(totalSize), qr.Version(code.VersionNumber), nil
}

func (r Renderer) FitsInTerminal(data []byte) (bool, error) {
	code, err := goqr.New(string(data), goqr.Medium)
	if err != nil {
		return false, fmt.Errorf("rasterqr: fits in terminal: %w", err)
	}

	modules := moduleCount(code.VersionNumber)
	withQuiet := modules + 2*quietZoneModules

	displayWidth := withQuiet
	displayHeight := (withQuiet + 1) / 2

	width, height, err := term.GetSize(0)
	if err != nil || width == 0 || height == 0 {
		width, height = 80, 24
	}

	if displayWidth > width || displayHeight+6 > height {
		return false, nil
	}
	return true, nil
}

// moduleCount returns a QR symbol's module width for a given version,
// per the standard QR size progression (version*4 + 17).
func moduleCount(version int) int {
	return version*4 + 17
}

// Scanner decodes QR symbols with gozxing, retrying with a luminance
// inversion if the first pass finds nothing (cameras routinely capture
// inverted symbols).
type Scanner struct{}

var _ qr.Scanner = Scanner{}

func (Scanner) Decode(img image.Image) ([]byte, error) {
	if text, err := decodeOnce(img); err == nil {
		return text, nil
	}

	inverted := invertLuminance(img)
	if text, err := decodeOnce(inverted); err == nil {
		return text, nil
	}

	return nil, fmt.Errorf("rasterqr: %w", errs.ErrNoCodeInFrame)
}

func decodeOnce(img image.Image) ([]byte, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}
	reader := qrcode.NewQRCodeReader()
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return nil, err
	}
	return []byte(result.GetText()), nil
}

func invertLuminance(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			out.SetGray(x, y, color.Gray{Y: 255 - v})
		}
	}
	return out
}
