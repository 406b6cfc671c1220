// Package termio renders QR symbols directly to a terminal using
// Unicode half-block characters, two module rows packed into one
// terminal row. Ported from render_qr_to_terminal in the original
// implementation's qr.rs.
package termio

import (
	"fmt"
	"strings"
	"time"

	goqr "github.com/skip2/go-qrcode"
	"golang.org/x/term"
)

const quietZoneModules = 4

// headerFooterReserve is the number of terminal rows set aside for a
// carousel's header/footer chrome, matching rasterqr.FitsInTerminal's
// fit check so Render never centers into space the fit probe already
// ruled out.
const headerFooterReserve = 6

// Render returns the half-block text form of data's QR symbol, centered
// for the caller's current terminal size (falling back to 80x24 if the
// size cannot be determined).
func Render(data []byte) (string, error) {
	code, err := goqr.New(string(data), goqr.Medium)
	if err != nil {
		return "", fmt.Errorf("termio: render: %w", err)
	}

	bitmap := code.Bitmap()
	qrSize := len(bitmap)
	withQuiet := qrSize + 2*quietZoneModules

	displayWidth := withQuiet
	displayHeight := (withQuiet + 1) / 2

	termWidth, termHeight, err := term.GetSize(0)
	if err != nil || termWidth == 0 || termHeight == 0 {
		termWidth, termHeight = 80, 24
	}

	padLeft := 0
	if termWidth > displayWidth {
		padLeft = (termWidth - displayWidth) / 2
	}
	padTop := 0
	if termHeight > displayHeight+headerFooterReserve {
		padTop = (termHeight - displayHeight - headerFooterReserve) / 2
	}

	isDark := func(row, col int) bool {
		if row >= quietZoneModules && row < qrSize+quietZoneModules &&
			col >= quietZoneModules && col < qrSize+quietZoneModules {
			return bitmap[row-quietZoneModules][col-quietZoneModules]
		}
		return false
	}

	var b strings.Builder
	leftPad := strings.Repeat(" ", padLeft)

	for i := 0; i < padTop; i++ {
		b.WriteByte('\n')
	}

	for pair := 0; pair < (withQuiet+1)/2; pair++ {
		top := pair * 2
		bottom := top + 1

		b.WriteString(leftPad)
		for col := 0; col < withQuiet; col++ {
			topDark := isDark(top, col)
			bottomDark := bottom < withQuiet && isDark(bottom, col)

			switch {
			case topDark && bottomDark:
				b.WriteRune('█')
			case topDark:
				b.WriteRune('▀')
			case bottomDark:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// Delay sleeps for the given millisecond interval between frames. A
// caller-driven display loop is expected to call this itself between
// writes rather than have Render block internally.
func Delay(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
