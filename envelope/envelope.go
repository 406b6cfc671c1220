// Package envelope implements the checksum + filename + content framing
// carried inside the compressed stream, and the zlib compression layer
// wrapped around it. Adapted from chunk.rs (pack_data/unpack_data/
// compress/decompress/calculate_checksum).
package envelope

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/qrtx/qrtx/errs"
)

// ChecksumSize is the number of leading SHA-256 bytes carried in an
// envelope as a content checksum.
const ChecksumSize = 8

// MinSize is the minimum length of a structurally valid envelope: an
// 8-byte checksum, one filename byte, and the NUL terminator.
const MinSize = ChecksumSize + 1 + 1

// Checksum returns the first ChecksumSize bytes of SHA-256(content).
func Checksum(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:ChecksumSize]
}

// Pack builds an envelope: Checksum(8) || Filename || 0x00 || Content.
// NUL bytes are stripped from filename before framing.
func Pack(content []byte, filename string) []byte {
	clean := strings.ReplaceAll(filename, "\x00", "")
	checksum := Checksum(content)

	out := make([]byte, 0, ChecksumSize+len(clean)+1+len(content))
	out = append(out, checksum...)
	out = append(out, clean...)
	out = append(out, 0)
	out = append(out, content...)
	return out
}

// Unpack reverses Pack: it locates the first NUL after the checksum,
// validates the filename is UTF-8, and verifies the checksum over the
// remaining content.
func Unpack(data []byte) (filename string, content []byte, err error) {
	if len(data) < MinSize {
		return "", nil, fmt.Errorf("%w: %d bytes, need at least %d", errs.ErrEnvelopeTruncated, len(data), MinSize)
	}

	expectedChecksum := data[:ChecksumSize]

	nulIdx := bytes.IndexByte(data[ChecksumSize:], 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: missing filename terminator", errs.ErrEnvelopeTruncated)
	}
	nulIdx += ChecksumSize

	filenameBytes := data[ChecksumSize:nulIdx]
	if !utf8.Valid(filenameBytes) {
		return "", nil, fmt.Errorf("%w", errs.ErrFilenameInvalid)
	}

	content = data[nulIdx+1:]
	actualChecksum := Checksum(content)
	if !bytes.Equal(actualChecksum, expectedChecksum) {
		return "", nil, fmt.Errorf("%w: expected %x, got %x", errs.ErrChecksumMismatch, expectedChecksum, actualChecksum)
	}

	return string(filenameBytes), content, nil
}

// Compress returns a best-compression zlib (deflate) stream over data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompressionError, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompressionError, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompressionError, err)
	}
	return buf.Bytes(), nil
}

// Decompress accepts any valid zlib stream and returns the inflated bytes.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompressionError, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompressionError, err)
	}
	return out, nil
}
