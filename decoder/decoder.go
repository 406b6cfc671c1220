// Package decoder implements the streaming reconstruction state machine:
// Unknown -> Standard|Fountain -> Complete. Packets may arrive in
// any order and be redelivered; ScanFrame and AddPacket tolerate
// garbage input by dropping it rather than failing the whole stream,
// since a camera-driven capture loop cannot afford a single bad frame
// to abort reconstruction. Adapted from the DecodeState machine and
// decode_from_frames loop in decode.rs.
package decoder

import (
	"fmt"
	"image"

	"github.com/qrtx/qrtx/chunker"
	"github.com/qrtx/qrtx/errs"
	"github.com/qrtx/qrtx/fountain"
	"github.com/qrtx/qrtx/logging"
	"github.com/qrtx/qrtx/packet"
	"github.com/qrtx/qrtx/qr"
	"github.com/qrtx/qrtx/reassembly"
)

// Stage identifies where in the reconstruction state machine a Decoder
// currently sits.
type Stage int

const (
	// StageUnknown has seen no accepted packet yet; the transport is
	// determined by whichever version arrives first.
	StageUnknown Stage = iota
	StageStandard
	StageFountain
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageUnknown:
		return "unknown"
	case StageStandard:
		return "standard"
	case StageFountain:
		return "fountain"
	case StageComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// Progress reports how much of the transfer has been recovered so far.
// Total is 0 whenever it cannot yet be known (fountain mode, before the
// first packet locks in a source-symbol estimate).
type Progress struct {
	Stage    Stage
	Received int
	Total    int
}

// Decoder accumulates packets from one transmission and reassembles the
// original file once enough have arrived.
type Decoder struct {
	scanner qr.Scanner
	logger  logging.Logger

	stage Stage

	// StageStandard
	totalChunks uint32
	chunks      map[uint32]packet.Packet

	// StageFountain
	fdec *fountain.Decoder

	result reassembly.File
}

// New builds an idle Decoder. logger may be logging.Nop.
func New(scanner qr.Scanner, logger logging.Logger) *Decoder {
	return &Decoder{
		scanner: scanner,
		logger:  logger,
		chunks:  make(map[uint32]packet.Packet),
	}
}

// Stage returns the decoder's current position in the state machine.
func (d *Decoder) Stage() Stage { return d.stage }

// Done reports whether the transfer has been fully reassembled.
func (d *Decoder) Done() bool { return d.stage == StageComplete }

// Result returns the reassembled file once Done reports true.
func (d *Decoder) Result() (reassembly.File, bool) {
	return d.result, d.stage == StageComplete
}

// Progress reports the decoder's current reconstruction progress.
func (d *Decoder) Progress() Progress {
	p := Progress{Stage: d.stage}
	switch d.stage {
	case StageStandard:
		p.Received = len(d.chunks)
		p.Total = int(d.totalChunks)
	case StageFountain:
		p.Received = int(d.fdec.Received())
		p.Total = int(d.fdec.EstimatedSourceSymbols())
	case StageComplete:
		p.Received, p.Total = 1, 1
	}
	return p
}

// ScanFrame decodes one raster frame with the configured qr.Scanner and
// feeds the resulting packet into the state machine. A frame with no
// recognizable QR symbol, or one that fails to parse, is dropped: it
// returns the decoder's unchanged progress and a nil error, exactly the
// same as a frame arriving during a moment of camera motion blur.
func (d *Decoder) ScanFrame(img image.Image) (Progress, error) {
	if d.stage == StageComplete {
		return d.Progress(), nil
	}

	text, err := d.scanner.Decode(img)
	if err != nil {
		d.logger.Debugf("decoder: no QR code in frame: %v", err)
		return d.Progress(), nil
	}

	p, err := packet.DecodeText(string(text))
	if err != nil {
		d.logger.Debugf("decoder: dropping unparseable frame: %v", err)
		return d.Progress(), nil
	}

	return d.AddPacket(p)
}

// AddPacket feeds one already-decoded packet into the state machine.
// Packets for a transport other than the one already locked in, or
// whose framing parameters disagree with the locked context, are
// dropped rather than treated as fatal — a corrupt or foreign packet
// should not derail an otherwise-healthy stream.
func (d *Decoder) AddPacket(p packet.Packet) (Progress, error) {
	if d.stage == StageComplete {
		return d.Progress(), nil
	}

	switch p.Header.Version {
	case packet.VersionStandard:
		return d.addStandard(p)
	case packet.VersionFountain:
		return d.addFountain(p)
	default:
		d.logger.Debugf("decoder: dropping packet with unsupported version %d", p.Header.Version)
		return d.Progress(), nil
	}
}

func (d *Decoder) addStandard(p packet.Packet) (Progress, error) {
	if p.Header.TotalChunks == 0 || p.Header.Index >= p.Header.TotalChunks {
		d.logger.Debugf("decoder: dropping v0 packet with out-of-range index %d >= total_chunks %d", p.Header.Index, p.Header.TotalChunks)
		return d.Progress(), nil
	}

	switch d.stage {
	case StageUnknown:
		d.stage = StageStandard
		d.totalChunks = p.Header.TotalChunks
	case StageFountain:
		d.logger.Debugf("decoder: dropping v0 packet, stream already locked to fountain")
		return d.Progress(), nil
	case StageStandard:
		if p.Header.TotalChunks != d.totalChunks {
			d.logger.Debugf("decoder: dropping v0 packet with inconsistent total_chunks %d != %d", p.Header.TotalChunks, d.totalChunks)
			return d.Progress(), nil
		}
	}

	d.chunks[p.Header.Index] = p // idempotent: redelivery just overwrites

	if uint32(len(d.chunks)) < d.totalChunks {
		return d.Progress(), nil
	}

	ordered := make([]packet.Packet, 0, len(d.chunks))
	for _, c := range d.chunks {
		ordered = append(ordered, c)
	}

	compressed, err := chunker.Merge(ordered)
	if err != nil {
		return d.Progress(), fmt.Errorf("decoder: merge v0 chunks: %w", err)
	}

	return d.finish(compressed)
}

func (d *Decoder) addFountain(p packet.Packet) (Progress, error) {
	switch d.stage {
	case StageUnknown:
		dec, err := fountain.NewDecoder(p.Header.TransferLength, p.Header.PacketSize)
		if err != nil {
			d.logger.Debugf("decoder: dropping v1 packet with unusable transfer context: %v", err)
			return d.Progress(), nil
		}
		d.stage = StageFountain
		d.fdec = dec
	case StageStandard:
		d.logger.Debugf("decoder: dropping v1 packet, stream already locked to standard")
		return d.Progress(), nil
	case StageFountain:
		if !d.fdec.Matches(p.Header) {
			d.logger.Debugf("decoder: dropping v1 packet with mismatched transfer context")
			return d.Progress(), nil
		}
	}

	done, err := d.fdec.AddPacket(p)
	if err != nil {
		return d.Progress(), fmt.Errorf("decoder: fountain add packet: %w", err)
	}
	if !done {
		return d.Progress(), nil
	}

	compressed, _ := d.fdec.Recovered()
	return d.finish(compressed)
}

func (d *Decoder) finish(compressed []byte) (Progress, error) {
	file, err := reassembly.Reassemble(compressed)
	if err != nil {
		return d.Progress(), fmt.Errorf("%w", err)
	}
	d.result = file
	d.stage = StageComplete
	d.logger.Infof("decoder: reassembled %q (%d bytes)", file.Filename, len(file.Content))
	return d.Progress(), nil
}

// ScanSource drains a qr.FrameSource, feeding every frame to ScanFrame
// until the source is exhausted or the transfer completes, whichever
// comes first. It returns errs.ErrInsufficientPackets if the source ran
// dry before reconstruction finished.
func ScanSource(d *Decoder, src qr.FrameSource) (reassembly.File, error) {
	for {
		frame, ok, err := src.Next()
		if err != nil {
			return reassembly.File{}, err
		}
		if !ok {
			break
		}

		if _, err := d.ScanFrame(frame.Image); err != nil {
			return reassembly.File{}, err
		}
		if d.Done() {
			file, _ := d.Result()
			return file, nil
		}
	}

	if result, done := d.Result(); done {
		return result, nil
	}
	return reassembly.File{}, fmt.Errorf("%w: source exhausted at stage %s", errs.ErrInsufficientPackets, d.Stage())
}
