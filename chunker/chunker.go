// Package chunker implements the fixed-partition v0 encoder and its
// matching reassembly merge, adapted from the ChunkIterator and
// merge_chunks logic in chunk.rs.
package chunker

import (
	"fmt"
	"sort"

	"github.com/qrtx/qrtx/errs"
	"github.com/qrtx/qrtx/packet"
)

// Split partitions compressed into packets of at most payloadSize bytes
// each, tagged with the v0 header. A zero-length compressed blob yields
// exactly one packet with TotalChunks=1 and an empty payload, so the
// envelope round-trip still terminates.
func Split(compressed []byte, payloadSize int) ([]packet.Packet, error) {
	if payloadSize <= 0 {
		return nil, fmt.Errorf("chunker: payloadSize must be positive, got %d", payloadSize)
	}

	if len(compressed) == 0 {
		return []packet.Packet{{
			Header:  packet.StandardHeader(1, 0),
			Payload: nil,
		}}, nil
	}

	total := (len(compressed) + payloadSize - 1) / payloadSize
	packets := make([]packet.Packet, 0, total)

	for i := 0; i < total; i++ {
		start := i * payloadSize
		end := start + payloadSize
		if end > len(compressed) {
			end = len(compressed)
		}
		data := append([]byte(nil), compressed[start:end]...)
		packets = append(packets, packet.Packet{
			Header:  packet.StandardHeader(uint32(total), uint32(i)),
			Payload: data,
		})
	}
	return packets, nil
}

// Merge reassembles a complete set of v0 packets (all sharing the same
// TotalChunks, one per index 0..TotalChunks-1) back into the compressed
// blob, sorting by index first so callers may hand it packets in any
// order.
func Merge(packets []packet.Packet) ([]byte, error) {
	if len(packets) == 0 {
		return nil, fmt.Errorf("chunker: no packets to merge")
	}

	sorted := append([]packet.Packet(nil), packets...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Header.Index < sorted[j].Header.Index
	})

	expectedTotal := sorted[0].Header.TotalChunks
	if uint32(len(sorted)) != expectedTotal {
		return nil, fmt.Errorf("%w: expected %d chunks, got %d", errs.ErrInsufficientPackets, expectedTotal, len(sorted))
	}

	for i, p := range sorted {
		if p.Header.Index != uint32(i) {
			return nil, fmt.Errorf("%w: missing chunk at index %d", errs.ErrInsufficientPackets, i)
		}
	}

	var out []byte
	for _, p := range sorted {
		out = append(out, p.Payload...)
	}
	return out, nil
}
