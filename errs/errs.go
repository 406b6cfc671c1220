// Package errs enumerates the error kinds of the packet/envelope/transport
// wire format. Callers branch on these with errors.Is; the wrapping call
// site supplies the contextual detail via fmt.Errorf("...: %w", ...).
package errs

import "errors"

var (
	// ErrUnsupportedVersion is raised when a packet header's version byte
	// is not 0 or 1.
	ErrUnsupportedVersion = errors.New("unsupported packet version")

	// ErrHeaderTruncated is raised when a buffer is shorter than the
	// fixed-width header for its declared version.
	ErrHeaderTruncated = errors.New("packet header truncated")

	// ErrEnvelopeTruncated is raised when a decompressed envelope is
	// shorter than the minimum valid length.
	ErrEnvelopeTruncated = errors.New("envelope truncated")

	// ErrFilenameInvalid is raised when the filename segment of an
	// envelope is not valid UTF-8.
	ErrFilenameInvalid = errors.New("envelope filename is not valid UTF-8")

	// ErrChecksumMismatch is raised when the recomputed content checksum
	// does not match the checksum carried in the envelope.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrCompressionError is raised when the zlib layer fails to
	// compress or decompress a stream.
	ErrCompressionError = errors.New("compression error")

	// ErrPayloadTooLarge is raised when the capacity-fit loop reaches its
	// floor without finding a payload size that satisfies the predicate.
	ErrPayloadTooLarge = errors.New("payload too large for target capacity")

	// ErrPayloadTooSmall is raised when a v1 symbol size would fall
	// below the minimum usable RaptorQ symbol size.
	ErrPayloadTooSmall = errors.New("payload too small for fountain symbol")

	// ErrSymbolCapacityExceeded is raised when a later packet's encoded
	// form exceeds the QR symbol version locked in by the first packet.
	ErrSymbolCapacityExceeded = errors.New("packet exceeds locked symbol capacity")

	// ErrInsufficientPackets is raised when a stream of either transport
	// ends before the decoder has recovered the transfer, or when a v0
	// chunk set handed to the merge is incomplete.
	ErrInsufficientPackets = errors.New("insufficient packets to recover transfer")

	// ErrNoCodeInFrame is raised by a QrScanner when no symbol is found
	// in a frame. Decoders treat it identically to a dropped frame.
	ErrNoCodeInFrame = errors.New("no QR code found in frame")

	// ErrCorruptTransmission wraps any error surfaced by the shared
	// decompress+unpack postamble.
	ErrCorruptTransmission = errors.New("corrupt transmission")
)
