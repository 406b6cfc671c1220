package rasterqr

import (
	"fmt"
	"image"
	"image/color"

	goqr "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/qrtx/qrtx/qr"
)

// RenderHalftone blends background into a QR symbol's quiet zone and
// data modules while keeping finder patterns solid for scannability,
// forcing error-correction level H for the extra robustness the
// blending costs. Ported from the halftone_path branch of
// generate_qr_image in qr.rs.
func RenderHalftone(data []byte, background image.Image, pixelScale int) (image.Image, qr.Version, error) {
	code, err := goqr.New(string(data), goqr.Highest)
	if err != nil {
		return nil, 0, fmt.Errorf("rasterqr: render halftone: %w", err)
	}

	bitmap := code.Bitmap()
	qrWidth := len(bitmap)
	totalWidth := (qrWidth + 2*quietZoneModules) * pixelScale

	bgResized := image.NewRGBA(image.Rect(0, 0, totalWidth, totalWidth))
	xdraw.CatmullRom.Scale(bgResized, bgResized.Bounds(), background, background.Bounds(), xdraw.Over, nil)

	dataStart := quietZoneModules * pixelScale
	dataEnd := (qrWidth + quietZoneModules) * pixelScale

	// Lighten the quiet zone heavily for contrast.
	for y := 0; y < totalWidth; y++ {
		for x := 0; x < totalWidth; x++ {
			if x < dataStart || x >= dataEnd || y < dataStart || y >= dataEnd {
				lighten(bgResized, x, y, 0.9)
			}
		}
	}

	for y := 0; y < qrWidth; y++ {
		for x := 0; x < qrWidth; x++ {
			isDark := bitmap[y][x]
			isFinder := (x < 8 && y < 8) ||
				(x >= qrWidth-8 && y < 8) ||
				(x < 8 && y >= qrWidth-8)

			px0 := (x + quietZoneModules) * pixelScale
			py0 := (y + quietZoneModules) * pixelScale

			for py := 0; py < pixelScale; py++ {
				for px := 0; px < pixelScale; px++ {
					cx, cy := px0+px, py0+py

					if isFinder {
						if isDark {
							bgResized.Set(cx, cy, color.Black)
						} else {
							bgResized.Set(cx, cy, color.White)
						}
						continue
					}

					border := 0
					if pixelScale > 2 {
						border = pixelScale / 4
					}
					isCenter := px >= border && px < pixelScale-border && py >= border && py < pixelScale-border
					if !isCenter {
						continue
					}

					if isDark {
						darken(bgResized, cx, cy, 0.8)
					} else {
						lighten(bgResized, cx, cy, 0.8)
					}
				}
			}
		}
	}

	return bgResized, qr.Version(code.VersionNumber), nil
}

func lighten(img *image.RGBA, x, y int, amount float64) {
	c := img.RGBAAt(x, y)
	c.R = blendToward(c.R, 255, amount)
	c.G = blendToward(c.G, 255, amount)
	c.B = blendToward(c.B, 255, amount)
	img.SetRGBA(x, y, c)
}

func darken(img *image.RGBA, x, y int, amount float64) {
	c := img.RGBAAt(x, y)
	c.R = blendToward(c.R, 0, amount)
	c.G = blendToward(c.G, 0, amount)
	c.B = blendToward(c.B, 0, amount)
	img.SetRGBA(x, y, c)
}

func blendToward(v uint8, target uint8, amount float64) uint8 {
	return uint8(float64(v) + (float64(target)-float64(v))*amount)
}
