package chunker

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/qrtx/qrtx/packet"
)

func TestSplitEmptyInput(t *testing.T) {
	packets, err := Split(nil, 100)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("len(packets) = %d, want 1", len(packets))
	}
	if packets[0].Header.TotalChunks != 1 || packets[0].Header.Index != 0 {
		t.Errorf("header = %+v", packets[0].Header)
	}
	if len(packets[0].Payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(packets[0].Payload))
	}
}

func TestSplitMergeRoundtrip(t *testing.T) {
	data := make([]byte, 10007)
	rng := rand.New(rand.NewSource(42))
	rng.Read(data)

	packets, err := Split(data, 250)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(packets) <= 1 {
		t.Fatalf("expected multiple chunks, got %d", len(packets))
	}

	merged, err := Merge(packets)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !bytes.Equal(merged, data) {
		t.Errorf("merged data does not match original")
	}
}

func TestMergeShuffledOrder(t *testing.T) {
	data := []byte("Hello, World! This is a test.")
	packets, err := Split(data, 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	shuffled := append([]packet.Packet(nil), packets...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	merged, err := Merge(shuffled)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !bytes.Equal(merged, data) {
		t.Errorf("merged data does not match original after shuffle")
	}
}

func TestMergeMissingChunk(t *testing.T) {
	packets, _ := Split([]byte("abcdefghij"), 2)
	if len(packets) < 3 {
		t.Fatalf("need at least 3 chunks for this test, got %d", len(packets))
	}
	missing := append(packets[:1], packets[2:]...)

	if _, err := Merge(missing); err == nil {
		t.Fatal("expected error for missing chunk")
	}
}
