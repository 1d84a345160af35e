// Package cc708overlay decodes a CEA-708 DTVCC packet stream into
// windowed, styled text and rasterizes it to an ARGB/AYUV overlay
// rectangle (spec.md §4.6).
package cc708overlay

import (
	"errors"

	"github.com/zsiec/mxfcap/cc708"
)

// maxPacketBytes bounds one assembled DTVCC packet (spec.md §4.6:
// "Accumulate payload bytes into a buffer <= 128 bytes").
const maxPacketBytes = 128

// ErrPacketOverflow is returned when a DTVCC packet would exceed
// maxPacketBytes.
var ErrPacketOverflow = errors.New("cc708overlay: DTVCC packet exceeds 128 bytes")

// PacketAssembler accumulates cc_data CCP triplets into complete DTVCC
// packets (spec.md §4.6 "Packet assembly").
type PacketAssembler struct {
	buf        []byte
	assembling bool
}

// Push feeds one cc_data triplet. It returns a complete packet whenever
// the triplet that ends the current packet arrives (a new cc_type=11
// start, or a cc_type=10 continuation with cc_valid clear).
func (a *PacketAssembler) Push(t cc708.Triplet) (packet []byte, ok bool, err error) {
	switch t.Type {
	case cc708.CCType708CCPStart:
		var out []byte
		if a.assembling && len(a.buf) > 0 {
			out, ok = a.buf, true
		}
		a.buf = []byte{t.B1, t.B2}
		a.assembling = true
		return out, ok, nil

	case cc708.CCType708CCPAdd:
		if !t.Valid {
			// An invalid continuation closes whatever packet is open.
			var out []byte
			if a.assembling && len(a.buf) > 0 {
				out, ok = a.buf, true
			}
			a.buf = nil
			a.assembling = false
			return out, ok, nil
		}
		if !a.assembling {
			return nil, false, nil // cc_type=10 with nothing open: ends nothing, starts nothing
		}
		a.buf = append(a.buf, t.B1, t.B2)
		if len(a.buf) > maxPacketBytes {
			a.assembling = false
			a.buf = nil
			return nil, false, ErrPacketOverflow
		}
		return nil, false, nil

	default:
		// A 608 triplet does not belong to the 708 packet stream; it
		// neither starts nor ends a DTVCC packet.
		return nil, false, nil
	}
}

// Flush returns and clears any in-progress packet (used at EOS).
func (a *PacketAssembler) Flush() []byte {
	if !a.assembling || len(a.buf) == 0 {
		a.assembling = false
		return nil
	}
	out := a.buf
	a.buf = nil
	a.assembling = false
	return out
}

// ServiceBlock is one service's command stream extracted from a DTVCC
// packet's service demultiplexer (spec.md §4.6: "hand to the service
// demultiplexer for the configured desired_service").
type ServiceBlock struct {
	ServiceNumber int // 1..63, 1 = primary
	Data          []byte
}

// DemuxServices splits a DTVCC packet into its per-service blocks. Each
// packet begins with a sequence of service blocks: a header byte
// `service_number(3):block_size(5)` (extended service numbers beyond 6
// use the reserved value 7 followed by an extension byte, per CEA-708;
// that extension path is not exercised here since the packet length cap
// makes it unreachable in practice for primary-service captioning).
func DemuxServices(packet []byte) []ServiceBlock {
	var blocks []ServiceBlock
	i := 0
	for i < len(packet) {
		header := packet[i]
		i++
		svc := int(header >> 5)
		size := int(header & 0x1F)
		if svc == 0 && size == 0 {
			break // null header pads out the packet
		}
		end := i + size
		if end > len(packet) {
			end = len(packet)
		}
		blocks = append(blocks, ServiceBlock{ServiceNumber: svc, Data: packet[i:end]})
		i = end
	}
	return blocks
}

// SelectService returns the block for desiredService (1..63, 1 =
// primary), or false if that service is not present in packet.
func SelectService(packet []byte, desiredService int) (ServiceBlock, bool) {
	for _, b := range DemuxServices(packet) {
		if b.ServiceNumber == desiredService {
			return b, true
		}
	}
	return ServiceBlock{}, false
}
