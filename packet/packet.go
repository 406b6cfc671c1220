// Package packet implements the wire header formats (v0 fixed-chunk, v1
// RaptorQ fountain) and their base64 text encoding for QR transport.
// Adapted from the ChunkHeader/Chunk types in chunk.rs, generalized to
// the two header layouts.
package packet

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/qrtx/qrtx/errs"
)

// Version identifies which header layout a packet carries.
type Version uint8

const (
	VersionStandard Version = 0 // fixed-partition chunker
	VersionFountain Version = 1 // RaptorQ fountain encoder
)

const (
	// V0HeaderSize is the encoded size of a VersionStandard header:
	// 1 (version) + 4 (total_chunks) + 4 (index).
	V0HeaderSize = 9

	// V1HeaderSize is the encoded size of a VersionFountain header:
	// 1 (version) + 4 (transfer_length) + 4 (esi) + 2 (packet_size).
	V1HeaderSize = 11
)

// Header is the tagged-variant packet header. Standard fields are valid
// only when Version == VersionStandard; Fountain fields only when
// Version == VersionFountain.
type Header struct {
	Version Version

	// VersionStandard fields.
	TotalChunks uint32
	Index       uint32

	// VersionFountain fields.
	TransferLength uint32
	ESI            uint32
	PacketSize     uint16
}

// StandardHeader builds a v0 header.
func StandardHeader(totalChunks, index uint32) Header {
	return Header{Version: VersionStandard, TotalChunks: totalChunks, Index: index}
}

// FountainHeader builds a v1 header.
func FountainHeader(transferLength, esi uint32, packetSize uint16) Header {
	return Header{Version: VersionFountain, TransferLength: transferLength, ESI: esi, PacketSize: packetSize}
}

// Size returns the encoded size of the header for its version.
func (h Header) Size() int {
	switch h.Version {
	case VersionStandard:
		return V0HeaderSize
	case VersionFountain:
		return V1HeaderSize
	default:
		return 0
	}
}

// Encode writes the fixed-width big-endian layout for h's version.
func (h Header) Encode() ([]byte, error) {
	switch h.Version {
	case VersionStandard:
		buf := make([]byte, V0HeaderSize)
		buf[0] = byte(VersionStandard)
		binary.BigEndian.PutUint32(buf[1:5], h.TotalChunks)
		binary.BigEndian.PutUint32(buf[5:9], h.Index)
		return buf, nil
	case VersionFountain:
		buf := make([]byte, V1HeaderSize)
		buf[0] = byte(VersionFountain)
		binary.BigEndian.PutUint32(buf[1:5], h.TransferLength)
		binary.BigEndian.PutUint32(buf[5:9], h.ESI)
		binary.BigEndian.PutUint16(buf[9:11], h.PacketSize)
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}
}

// DecodeHeader reads the version tag from buf[0] and dispatches to the
// matching fixed-width layout. It returns the parsed header and the
// number of bytes consumed.
func DecodeHeader(buf []byte) (Header, int, error) {
	if len(buf) == 0 {
		return Header{}, 0, fmt.Errorf("%w: empty buffer", errs.ErrHeaderTruncated)
	}

	switch Version(buf[0]) {
	case VersionStandard:
		if len(buf) < V0HeaderSize {
			return Header{}, 0, fmt.Errorf("%w: v0 header needs %d bytes, got %d", errs.ErrHeaderTruncated, V0HeaderSize, len(buf))
		}
		h := Header{
			Version:     VersionStandard,
			TotalChunks: binary.BigEndian.Uint32(buf[1:5]),
			Index:       binary.BigEndian.Uint32(buf[5:9]),
		}
		return h, V0HeaderSize, nil
	case VersionFountain:
		if len(buf) < V1HeaderSize {
			return Header{}, 0, fmt.Errorf("%w: v1 header needs %d bytes, got %d", errs.ErrHeaderTruncated, V1HeaderSize, len(buf))
		}
		h := Header{
			Version:        VersionFountain,
			TransferLength: binary.BigEndian.Uint32(buf[1:5]),
			ESI:            binary.BigEndian.Uint32(buf[5:9]),
			PacketSize:     binary.BigEndian.Uint16(buf[9:11]),
		}
		return h, V1HeaderSize, nil
	default:
		return Header{}, 0, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, buf[0])
	}
}

// Packet is a wire unit: header + payload. The payload carries no length
// prefix — its size is known from the transport (the base64-decoded
// packet length minus the header size).
type Packet struct {
	Header  Header
	Payload []byte
}

// Encode serializes the packet to its raw binary wire form.
func (p Packet) Encode() ([]byte, error) {
	header, err := p.Header.Encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+len(p.Payload))
	out = append(out, header...)
	out = append(out, p.Payload...)
	return out, nil
}

// Decode parses a raw binary packet: header followed by the remaining
// bytes as payload.
func Decode(buf []byte) (Packet, error) {
	header, n, err := DecodeHeader(buf)
	if err != nil {
		return Packet{}, err
	}
	payload := append([]byte(nil), buf[n:]...)
	return Packet{Header: header, Payload: payload}, nil
}

// EncodeText returns the QR frame text form: standard base64 (RFC 4648,
// padded) of the packet's binary wire form.
func (p Packet) EncodeText() (string, error) {
	raw, err := p.Encode()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeText trims surrounding whitespace, base64-decodes, and parses the
// packet. Callers treat any error here as "drop this frame", never as a
// fatal stream error.
func DecodeText(text string) (Packet, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return Packet{}, fmt.Errorf("base64 decode: %w", err)
	}
	return Decode(raw)
}
