// Package capacity implements the QR-capacity fitting loop: a
// monotone-decreasing probe that discovers a payload size whose first
// packet renders into a chosen QR symbol class, or into the caller's
// terminal. Adapted from the prepare_chunks/encode_file_for_terminal
// resizing loops in encode.rs.
package capacity

import (
	"fmt"

	"github.com/qrtx/qrtx/errs"
)

// Params bounds one fitting run: Start is the first payload size tried,
// Floor is the smallest size the loop will still attempt, and Step is
// subtracted on each rejected probe.
type Params struct {
	Start int
	Floor int
	Step  int
}

// FileParams are the defaults for file/GIF output.
var FileParams = Params{Start: 1400, Floor: 100, Step: 50}

// TerminalParams are the defaults for terminal output.
var TerminalParams = Params{Start: 100, Floor: 50, Step: 20}

// Candidate builds the base64 text of a representative packet for a
// trial payload size. A non-nil error aborts the fit loop immediately
// (it does not retry at a smaller size) — used for v1's PayloadTooSmall
// abort when the derived symbol size would fall below the minimum.
type Candidate func(payloadSize int) (text string, err error)

// Accepts reports whether a candidate's base64 text renders within the
// target QR symbol class or terminal window.
type Accepts func(text string) bool

// Fit starts at params.Start and, on each rejected candidate, subtracts
// params.Step as long as the current size exceeds params.Floor. It
// returns the first payload size accepted by accepts, or
// ErrPayloadTooLarge once the floor is reached without acceptance.
func Fit(params Params, build Candidate, accepts Accepts) (int, error) {
	current := params.Start

	for {
		text, err := build(current)
		if err != nil {
			return 0, err
		}

		if accepts(text) {
			return current, nil
		}

		if current > params.Floor {
			current -= params.Step
			if current < params.Floor {
				current = params.Floor
			}
			continue
		}

		return 0, fmt.Errorf("%w: no payload size down to floor %d fits", errs.ErrPayloadTooLarge, params.Floor)
	}
}
