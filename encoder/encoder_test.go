package encoder

import (
	"image"
	"strings"
	"testing"

	"github.com/qrtx/qrtx/chunker"
	"github.com/qrtx/qrtx/envelope"
	"github.com/qrtx/qrtx/fountain"
	"github.com/qrtx/qrtx/packet"
	"github.com/qrtx/qrtx/qr"
)

// capRenderer accepts any text up to maxLen bytes, simulating a fixed QR
// symbol version's data capacity without depending on a real QR library.
type capRenderer struct {
	maxLen int
}

var _ qr.Renderer = capRenderer{}

func (r capRenderer) Render(data []byte, version qr.Version, pixelScale int) (image.Image, qr.Version, error) {
	if len(data) > r.maxLen {
		return nil, 0, errTooBig
	}
	return image.NewGray(image.Rect(0, 0, 1, 1)), 7, nil
}

func (r capRenderer) FitsInTerminal(data []byte) (bool, error) {
	return len(data) <= r.maxLen, nil
}

var errTooBig = &capacityError{"payload exceeds capacity"}

type capacityError struct{ s string }

func (e *capacityError) Error() string { return e.s }

func TestEncodeStandardRoundtrip(t *testing.T) {
	content := []byte(strings.Repeat("hello world ", 200))
	result, err := EncodeFile(content, "greeting.txt", Options{
		Mode:       ModeStandard,
		PixelScale: 4,
		Renderer:   capRenderer{maxLen: 400},
	})
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	if result.EffectivePayloadSize <= 0 {
		t.Fatalf("expected positive effective payload size, got %d", result.EffectivePayloadSize)
	}

	compressed, err := chunker.Merge(result.Packets)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	packed, err := envelope.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	filename, got, err := envelope.Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if filename != "greeting.txt" {
		t.Errorf("filename = %q, want greeting.txt", filename)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch after roundtrip")
	}
}

func TestEncodeFountainRoundtrip(t *testing.T) {
	content := []byte(strings.Repeat("fountain payload data ", 300))
	result, err := EncodeFile(content, "data.bin", Options{
		Mode:       ModeFountain,
		Redundancy: 1.8,
		PixelScale: 4,
		Renderer:   capRenderer{maxLen: 300},
	})
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}

	first := result.Packets[0].Header
	dec, err := fountain.NewDecoder(first.TransferLength, first.PacketSize)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	var recovered []byte
	for _, p := range result.Packets {
		done, err := dec.AddPacket(p)
		if err != nil {
			t.Fatalf("AddPacket: %v", err)
		}
		if done {
			recovered, _ = dec.Recovered()
			break
		}
	}
	if recovered == nil {
		t.Fatalf("decoder never recovered the transfer from %d packets", len(result.Packets))
	}

	packed, err := envelope.Decompress(recovered)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	filename, got, err := envelope.Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if filename != "data.bin" {
		t.Errorf("filename = %q, want data.bin", filename)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch after fountain roundtrip")
	}
}

func TestEncodeFountainDefaultRedundancyByMode(t *testing.T) {
	content := []byte(strings.Repeat("redundancy default payload ", 300))

	fileResult, err := EncodeFile(content, "data.bin", Options{
		Mode:       ModeFountain,
		PixelScale: 4,
		Renderer:   capRenderer{maxLen: 300},
	})
	if err != nil {
		t.Fatalf("EncodeFile (file): %v", err)
	}

	termResult, err := EncodeFile(content, "data.bin", Options{
		Mode:       ModeFountain,
		Terminal:   true,
		PixelScale: 4,
		Renderer:   capRenderer{maxLen: 300},
	})
	if err != nil {
		t.Fatalf("EncodeFile (terminal): %v", err)
	}

	fileFirst := fileResult.Packets[0].Header
	fileK := fountain.SourceSymbolCount(fileFirst.TransferLength, fileFirst.PacketSize)
	wantFileM := fountain.PacketCount(fileK, DefaultRedundancy)
	if len(fileResult.Packets) != int(wantFileM) {
		t.Errorf("file packet count = %d, want %d (K=%d, R=%v)", len(fileResult.Packets), wantFileM, fileK, DefaultRedundancy)
	}

	termFirst := termResult.Packets[0].Header
	termK := fountain.SourceSymbolCount(termFirst.TransferLength, termFirst.PacketSize)
	wantTermM := fountain.PacketCount(termK, DefaultTerminalRedundancy)
	if len(termResult.Packets) != int(wantTermM) {
		t.Errorf("terminal packet count = %d, want %d (K=%d, R=%v)", len(termResult.Packets), wantTermM, termK, DefaultTerminalRedundancy)
	}
}

func TestEncodeFileRejectsUnknownMode(t *testing.T) {
	_, err := EncodeFile([]byte("x"), "f", Options{Mode: Mode(99), Renderer: capRenderer{maxLen: 1000}})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRenderFramesRendersEveryPacket(t *testing.T) {
	packets := []packet.Packet{
		{Header: packet.StandardHeader(2, 0), Payload: []byte("aaaa")},
		{Header: packet.StandardHeader(2, 1), Payload: []byte("bbbb")},
	}
	frames, err := RenderFrames(packets, capRenderer{maxLen: 1000}, 4)
	if err != nil {
		t.Fatalf("RenderFrames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func TestRenderFramesSymbolCapacityExceeded(t *testing.T) {
	packets := []packet.Packet{
		{Header: packet.StandardHeader(2, 0), Payload: []byte("a")},
		{Header: packet.StandardHeader(2, 1), Payload: []byte(strings.Repeat("b", 2000))},
	}
	_, err := RenderFrames(packets, capRenderer{maxLen: 100}, 4)
	if err == nil {
		t.Fatal("expected capacity error on oversized second packet")
	}
}

func TestRenderTerminalFrames(t *testing.T) {
	packets := []packet.Packet{
		{Header: packet.StandardHeader(1, 0), Payload: []byte("x")},
	}
	rendered, err := RenderTerminalFrames(packets, func(data []byte) (string, error) {
		return string(data), nil
	})
	if err != nil {
		t.Fatalf("RenderTerminalFrames: %v", err)
	}
	if len(rendered) != 1 || rendered[0] == "" {
		t.Fatalf("unexpected rendered output: %#v", rendered)
	}
}
