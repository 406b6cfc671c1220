// Package fountain implements the v1 RaptorQ (RFC 6330) systematic
// fountain encoder and decoder, generalizing the rqProtector wrapper
// around github.com/xssnick/raptorq in fec/raptorq.go from a fixed
// K-source-shard FEC scheme to the streaming, arbitrary-subset packet
// model described by the wire format.
package fountain

import (
	"fmt"

	"github.com/xssnick/raptorq"

	"github.com/qrtx/qrtx/errs"
	"github.com/qrtx/qrtx/packet"
)

// MinSymbolSize is the smallest usable RaptorQ symbol size; a symbol
// smaller than this cannot carry the redundancy the code relies on.
const MinSymbolSize = 4

// SourceSymbolCount returns K, the number of source symbols needed for a
// lossless reconstruction: ceil(transferLength / packetSize).
func SourceSymbolCount(transferLength uint32, packetSize uint16) uint32 {
	if packetSize == 0 {
		return 0
	}
	return (transferLength + uint32(packetSize) - 1) / uint32(packetSize)
}

// PacketCount returns M, the number of packets an Encoder should emit for
// a given redundancy factor: ceil(R * K), floored at K+2 so even tiny
// transfers always carry some repair symbols.
func PacketCount(sourceSymbols uint32, redundancy float64) uint32 {
	m := uint32(float64(sourceSymbols)*redundancy + 0.999999999)
	if floor := sourceSymbols + 2; m < floor {
		m = floor
	}
	return m
}

// Encoder generates systematic RaptorQ packets for one compressed blob.
type Encoder struct {
	transferLength uint32
	packetSize     uint16
	enc            *raptorq.Encoder
}

// NewEncoder configures an object-transmission context for compressed,
// with symbols of packetSize bytes. packetSize must be even and at least
// MinSymbolSize.
func NewEncoder(compressed []byte, packetSize uint16) (*Encoder, error) {
	if packetSize < MinSymbolSize || packetSize%2 != 0 {
		return nil, fmt.Errorf("%w: symbol size %d must be even and >= %d", errs.ErrPayloadTooSmall, packetSize, MinSymbolSize)
	}

	rq := raptorq.NewRaptorQ(packetSize)
	enc, err := rq.CreateEncoder(compressed)
	if err != nil {
		return nil, fmt.Errorf("fountain: create encoder: %w", err)
	}

	return &Encoder{
		transferLength: uint32(len(compressed)),
		packetSize:     packetSize,
		enc:            enc,
	}, nil
}

// SourceSymbolCount returns K for this encoder's configured transfer
// length and packet size.
func (e *Encoder) SourceSymbolCount() uint32 {
	return SourceSymbolCount(e.transferLength, e.packetSize)
}

// Symbol returns a single packet for the given ESI, used by the
// capacity-fit loop to probe a representative packet without generating
// the full redundant set.
func (e *Encoder) Symbol(esi uint32) packet.Packet {
	return packet.Packet{
		Header:  packet.FountainHeader(e.transferLength, esi, e.packetSize),
		Payload: e.enc.GenSymbol(esi),
	}
}

// GeneratePackets emits M = PacketCount(K, redundancy) packets, ESI 0..M-1
// in emission order, each tagged with a v1 header carrying this
// encoder's (transferLength, packetSize).
func (e *Encoder) GeneratePackets(redundancy float64) []packet.Packet {
	k := e.SourceSymbolCount()
	m := PacketCount(k, redundancy)

	packets := make([]packet.Packet, 0, m)
	for esi := uint32(0); esi < m; esi++ {
		symbol := e.enc.GenSymbol(esi)
		packets = append(packets, packet.Packet{
			Header:  packet.FountainHeader(e.transferLength, esi, e.packetSize),
			Payload: symbol,
		})
	}
	return packets
}

// Decoder accumulates RaptorQ symbols for one (transferLength,
// packetSize) context and attempts recovery after every inserted symbol.
type Decoder struct {
	transferLength uint32
	packetSize     uint16
	dec            *raptorq.Decoder
	received       uint32
	recovered      []byte
	done           bool
}

// NewDecoder configures a decoder for the given object-transmission
// context, as observed from the first accepted v1 packet.
func NewDecoder(transferLength uint32, packetSize uint16) (*Decoder, error) {
	if packetSize == 0 {
		return nil, fmt.Errorf("fountain: packetSize must be positive")
	}
	rq := raptorq.NewRaptorQ(packetSize)
	dec, err := rq.CreateDecoder(uint64(transferLength))
	if err != nil {
		return nil, fmt.Errorf("fountain: create decoder: %w", err)
	}
	return &Decoder{
		transferLength: transferLength,
		packetSize:     packetSize,
		dec:            dec,
	}, nil
}

// Matches reports whether a packet's (transferLength, packetSize) agrees
// with this decoder's context.
func (d *Decoder) Matches(h packet.Header) bool {
	return h.Version == packet.VersionFountain &&
		h.TransferLength == d.transferLength &&
		h.PacketSize == d.packetSize
}

// AddPacket feeds one symbol into the decoder and attempts recovery
// immediately, per the "stop as soon as possible" design note. It returns
// true once recovery has succeeded; subsequent calls are no-ops.
func (d *Decoder) AddPacket(p packet.Packet) (bool, error) {
	if d.done {
		return true, nil
	}

	canTry, err := d.dec.AddSymbol(p.Header.ESI, p.Payload)
	if err != nil {
		// Duplicate or malformed symbols are tolerated, not fatal —
		// camera-sourced streams routinely redeliver the same ESI.
		return false, nil
	}
	d.received++
	if !canTry {
		return false, nil
	}

	success, data, err := d.dec.Decode()
	if err != nil {
		return false, fmt.Errorf("fountain: decode attempt: %w", err)
	}
	if !success {
		return false, nil
	}

	if uint32(len(data)) < d.transferLength {
		return false, fmt.Errorf("fountain: recovered %d bytes, want at least %d", len(data), d.transferLength)
	}

	d.recovered = data[:d.transferLength]
	d.done = true
	return true, nil
}

// Recovered returns the reconstructed transfer once AddPacket has
// signalled success.
func (d *Decoder) Recovered() ([]byte, bool) {
	return d.recovered, d.done
}

// EstimatedSourceSymbols returns K for this decoder's context, used to
// compute decode progress for display.
func (d *Decoder) EstimatedSourceSymbols() uint32 {
	return SourceSymbolCount(d.transferLength, d.packetSize)
}

// Received returns the number of symbols successfully handed to the
// underlying RaptorQ decoder so far, used for progress display. It
// includes repair symbols, so it may exceed EstimatedSourceSymbols well
// before recovery succeeds.
func (d *Decoder) Received() uint32 {
	return d.received
}
