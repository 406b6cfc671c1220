package decoder

import (
	"errors"
	"image"
	"math/rand"
	"strings"
	"testing"

	"github.com/qrtx/qrtx/chunker"
	"github.com/qrtx/qrtx/envelope"
	"github.com/qrtx/qrtx/fountain"
	"github.com/qrtx/qrtx/logging"
	"github.com/qrtx/qrtx/packet"
	"github.com/qrtx/qrtx/qr"
)

// textFrame carries the QR payload text directly, so tests can exercise
// the decoder state machine without a real QR renderer/scanner pair.
type textFrame struct {
	image.Image
	text string
}

func newTextFrame(text string) textFrame {
	return textFrame{Image: image.NewGray(image.Rect(0, 0, 1, 1)), text: text}
}

type fakeScanner struct{}

var _ qr.Scanner = fakeScanner{}

func (fakeScanner) Decode(img image.Image) ([]byte, error) {
	tf, ok := img.(textFrame)
	if !ok || tf.text == "" {
		return nil, errors.New("no QR code found in frame")
	}
	return []byte(tf.text), nil
}

func buildCompressed(t *testing.T, content []byte, filename string) []byte {
	t.Helper()
	packed := envelope.Pack(content, filename)
	compressed, err := envelope.Compress(packed)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	return compressed
}

func TestStandardOrderIndependentAndIdempotent(t *testing.T) {
	content := []byte(strings.Repeat("decoder roundtrip payload ", 100))
	compressed := buildCompressed(t, content, "payload.bin")

	packets, err := chunker.Split(compressed, 64)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	frames := make([]textFrame, 0, len(packets)*2)
	for _, p := range packets {
		text, err := p.EncodeText()
		if err != nil {
			t.Fatalf("EncodeText: %v", err)
		}
		frames = append(frames, newTextFrame(text), newTextFrame(text)) // duplicate every packet
	}

	rand.New(rand.NewSource(7)).Shuffle(len(frames), func(i, j int) {
		frames[i], frames[j] = frames[j], frames[i]
	})

	d := New(fakeScanner{}, logging.Nop)
	for _, f := range frames {
		if _, err := d.ScanFrame(f); err != nil {
			t.Fatalf("ScanFrame: %v", err)
		}
		if d.Done() {
			break
		}
	}

	if !d.Done() {
		t.Fatalf("decoder never completed, stage=%s", d.Stage())
	}
	result, _ := d.Result()
	if result.Filename != "payload.bin" || string(result.Content) != string(content) {
		t.Errorf("reassembled mismatch: filename=%q len=%d", result.Filename, len(result.Content))
	}
}

func TestFountainRecoversFromErasures(t *testing.T) {
	content := []byte(strings.Repeat("fountain decode payload ", 120))
	compressed := buildCompressed(t, content, "stream.dat")

	enc, err := fountain.NewEncoder(compressed, 64)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	packets := enc.GeneratePackets(1.6)

	d := New(fakeScanner{}, logging.Nop)
	for i, p := range packets {
		if i%4 == 0 {
			continue // simulate a dropped camera frame
		}
		text, err := p.EncodeText()
		if err != nil {
			t.Fatalf("EncodeText: %v", err)
		}
		if _, err := d.ScanFrame(newTextFrame(text)); err != nil {
			t.Fatalf("ScanFrame: %v", err)
		}
		if d.Done() {
			break
		}
	}

	if !d.Done() {
		t.Fatalf("decoder never recovered, stage=%s", d.Stage())
	}
	result, _ := d.Result()
	if result.Filename != "stream.dat" || string(result.Content) != string(content) {
		t.Errorf("reassembled mismatch: filename=%q len=%d", result.Filename, len(result.Content))
	}
}

func TestGarbageFramesDoNotAbort(t *testing.T) {
	content := []byte("small file")
	compressed := buildCompressed(t, content, "tiny.txt")
	packets, err := chunker.Split(compressed, 32)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	d := New(fakeScanner{}, logging.Nop)
	for _, p := range packets {
		if _, err := d.ScanFrame(newTextFrame("")); err != nil {
			t.Fatalf("ScanFrame(garbage): %v", err)
		}
		text, err := p.EncodeText()
		if err != nil {
			t.Fatalf("EncodeText: %v", err)
		}
		if _, err := d.ScanFrame(newTextFrame(text)); err != nil {
			t.Fatalf("ScanFrame: %v", err)
		}
	}

	if !d.Done() {
		t.Fatalf("decoder should have completed despite interleaved garbage frames")
	}
}

func TestConflictingTransportPacketsDropped(t *testing.T) {
	content := []byte("cross-transport test content")
	compressed := buildCompressed(t, content, "cross.bin")
	packets, err := chunker.Split(compressed, 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	d := New(fakeScanner{}, logging.Nop)
	text0, _ := packets[0].EncodeText()
	if _, err := d.ScanFrame(newTextFrame(text0)); err != nil {
		t.Fatalf("ScanFrame: %v", err)
	}
	if d.Stage() != StageStandard {
		t.Fatalf("stage = %s, want standard", d.Stage())
	}

	foreign := packet.Packet{
		Header:  packet.FountainHeader(1000, 0, 64),
		Payload: make([]byte, 64),
	}
	foreignText, _ := foreign.EncodeText()
	if _, err := d.ScanFrame(newTextFrame(foreignText)); err != nil {
		t.Fatalf("ScanFrame(foreign): %v", err)
	}
	if d.Stage() != StageStandard {
		t.Fatalf("stage changed after foreign-version packet: %s", d.Stage())
	}

	for _, p := range packets[1:] {
		text, _ := p.EncodeText()
		if _, err := d.ScanFrame(newTextFrame(text)); err != nil {
			t.Fatalf("ScanFrame: %v", err)
		}
	}
	if !d.Done() {
		t.Fatal("decoder should still complete after dropping the foreign packet")
	}
}

func TestStandardOutOfRangeIndexDropped(t *testing.T) {
	content := []byte("out of range index test content")
	compressed := buildCompressed(t, content, "range.bin")
	packets, err := chunker.Split(compressed, 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	d := New(fakeScanner{}, logging.Nop)

	corrupt := packet.Packet{
		Header:  packet.StandardHeader(1, 7), // index >= total_chunks
		Payload: make([]byte, 16),
	}
	corruptText, _ := corrupt.EncodeText()
	if _, err := d.ScanFrame(newTextFrame(corruptText)); err != nil {
		t.Fatalf("ScanFrame(corrupt): %v", err)
	}
	if d.Stage() != StageUnknown {
		t.Fatalf("stage = %s after corrupt packet, want unknown (should still be dropped)", d.Stage())
	}

	for _, p := range packets {
		text, _ := p.EncodeText()
		if _, err := d.ScanFrame(newTextFrame(text)); err != nil {
			t.Fatalf("ScanFrame: %v", err)
		}
	}
	if !d.Done() {
		t.Fatal("decoder should complete once legitimate packets arrive despite the earlier out-of-range packet")
	}
	result, _ := d.Result()
	if result.Filename != "range.bin" || string(result.Content) != string(content) {
		t.Errorf("reassembled mismatch: filename=%q len=%d", result.Filename, len(result.Content))
	}
}

func TestStandardZeroTotalChunksDropped(t *testing.T) {
	d := New(fakeScanner{}, logging.Nop)

	corrupt := packet.Packet{
		Header:  packet.StandardHeader(0, 0),
		Payload: nil,
	}
	corruptText, _ := corrupt.EncodeText()
	if _, err := d.ScanFrame(newTextFrame(corruptText)); err != nil {
		t.Fatalf("ScanFrame(corrupt): %v", err)
	}
	if d.Stage() != StageUnknown {
		t.Fatalf("stage = %s after zero-total_chunks packet, want unknown", d.Stage())
	}
}

type sliceSource struct {
	frames []qr.Frame
	index  int
}

func (s *sliceSource) Next() (qr.Frame, bool, error) {
	if s.index >= len(s.frames) {
		return qr.Frame{}, false, nil
	}
	f := s.frames[s.index]
	s.index++
	return f, true, nil
}

func TestScanSource(t *testing.T) {
	content := []byte("scan source content")
	compressed := buildCompressed(t, content, "src.txt")
	packets, err := chunker.Split(compressed, 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	frames := make([]qr.Frame, len(packets))
	for i, p := range packets {
		text, _ := p.EncodeText()
		frames[i] = qr.Frame{Image: newTextFrame(text)}
	}

	d := New(fakeScanner{}, logging.Nop)
	result, err := ScanSource(d, &sliceSource{frames: frames})
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	if result.Filename != "src.txt" || string(result.Content) != string(content) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestScanSourceInsufficientPackets(t *testing.T) {
	content := []byte("will not complete")
	compressed := buildCompressed(t, content, "partial.txt")
	packets, err := chunker.Split(compressed, 8)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(packets) < 2 {
		t.Fatal("test requires at least two chunks")
	}

	frames := make([]qr.Frame, 0, len(packets)-1)
	for _, p := range packets[:len(packets)-1] {
		text, _ := p.EncodeText()
		frames = append(frames, qr.Frame{Image: newTextFrame(text)})
	}

	d := New(fakeScanner{}, logging.Nop)
	_, err = ScanSource(d, &sliceSource{frames: frames})
	if err == nil {
		t.Fatal("expected error for incomplete frame source")
	}
}
