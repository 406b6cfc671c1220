// Package reassembly implements the postamble shared by both transports:
// once a complete compressed blob has been recovered — by the v0
// chunker or the v1 fountain decoder — inflate it and unpack the
// envelope to recover the original filename and content. Adapted from
// the tail of decode_file/decode_from_frames in decode.rs.
package reassembly

import (
	"fmt"

	"github.com/qrtx/qrtx/envelope"
	"github.com/qrtx/qrtx/errs"
)

// File is a fully reassembled transfer.
type File struct {
	Filename string
	Content  []byte
}

// Reassemble decompresses a complete wire blob and unpacks its
// envelope, wrapping any failure as errs.ErrCorruptTransmission since by
// this point the transport layer has already declared the transfer
// complete — a failure here means the content itself was corrupt, not
// that more packets are needed.
func Reassemble(compressed []byte) (File, error) {
	packed, err := envelope.Decompress(compressed)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", errs.ErrCorruptTransmission, err)
	}

	filename, content, err := envelope.Unpack(packed)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", errs.ErrCorruptTransmission, err)
	}

	return File{Filename: filename, Content: content}, nil
}
