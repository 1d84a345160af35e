package mxf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// TraceWriter receives one line per KLV this muxer writes, in the format
// "<label> key=<hex key> len=<n> @<offset>". Callers typically point this at a
// gopkg.in/natefinch/lumberjack.v2 Logger so long-running capture
// sessions don't grow an unbounded trace file.
type TraceWriter io.Writer

// State is one of the muxer's four states (spec.md §4.7.1).
type State int

const (
	StateHeader State = iota
	StateData
	StateEOS
	StateError
)

func (s State) String() string {
	switch s {
	case StateHeader:
		return "HEADER"
	case StateData:
		return "DATA"
	case StateEOS:
		return "EOS"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Pad is one sink pad's muxing state: its resolved writer, descriptor,
// and position bookkeeping for edit-unit cadence and indexing.
type Pad struct {
	Name           string
	Writer         EssenceElementWriter
	Descriptor     EssenceDescriptor
	EditRate       Rational
	TrackNumberUL  UL
	TrackID        uint32
	pos           int64 // edit units written
	lastTimestamp int64
}

// Muxer drives the spec.md §4.7 state machine across a set of sink pads,
// writing a SMPTE-compliant MXF stream to out.
type Muxer struct {
	out   io.WriteSeeker
	log   *slog.Logger
	trace TraceWriter

	// mu serializes Push/AddPad/Eos: a Pad's EssenceElementWriter and the
	// underlying KLV stream are both single-writer state, but spec.md
	// §4.7.2 lets the host framework add pads and push essence from one
	// goroutine per sink pad (cmd/mxfmux does exactly that with an
	// errgroup.Group).
	mu sync.Mutex

	state State
	pads  []*Pad

	graph      *Graph
	headerEnd  int64
	bodyOffset int64

	indexTable *IndexTable
	indexedPad *Pad

	lastGCPosition int64
	minEditRate    Rational
	written        int64
	err            error
}

// NewMuxer creates a Muxer writing to out. log defaults to
// slog.Default() when nil.
func NewMuxer(out io.WriteSeeker, log *slog.Logger) *Muxer {
	if log == nil {
		log = slog.Default()
	}
	return &Muxer{out: out, log: log, state: StateHeader}
}

// State returns the muxer's current state.
func (m *Muxer) State() State { return m.state }

// SetTraceWriter enables KLV-level trace logging; pass nil to disable.
func (m *Muxer) SetTraceWriter(w TraceWriter) { m.trace = w }

// EnableKLVTrace points the muxer's trace log at a rotating file, for
// long capture sessions where an unbounded plain trace file isn't
// practical.
func (m *Muxer) EnableKLVTrace(path string, maxSizeMB, maxBackups int) {
	m.trace = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
}

// writeKLV writes b (an already-encoded KLV) to out, advances m.written,
// and emits a trace line naming the KLV's key and size if tracing is
// enabled.
func (m *Muxer) writeKLV(label string, key UL, b []byte) (int, error) {
	n, err := m.out.Write(b)
	if err != nil {
		return n, err
	}
	if m.trace != nil {
		fmt.Fprintf(m.trace, "%s key=%s len=%d @%d\n", label, key, len(b), m.written)
	}
	m.written += int64(n)
	return n, nil
}

// AddPad registers a sink pad resolved from the process-wide essence-
// element-writer Registry (spec.md §4.7.2: "Sink pads are created on
// request by the host framework... an essence element writer is
// resolved from the pad template via a process-wide registry").
func (m *Muxer) AddPad(name, padTemplate string, caps Caps) (*Pad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateHeader {
		return nil, fmt.Errorf("mxf: AddPad called outside HEADER state (state=%s)", m.state)
	}
	writer, err := Resolve(padTemplate)
	if err != nil {
		m.fail(err)
		return nil, err
	}
	desc, err := writer.GetDescriptor(caps)
	if err != nil {
		m.fail(fmt.Errorf("mxf: GetDescriptor for pad %q: %w", name, err))
		return nil, m.err
	}
	editRate, err := writer.GetEditRate(desc, caps, nil)
	if err != nil {
		m.fail(fmt.Errorf("mxf: GetEditRate for pad %q: %w", name, err))
		return nil, m.err
	}
	pad := &Pad{Name: name, Writer: writer, Descriptor: desc, EditRate: editRate}
	m.pads = append(m.pads, pad)
	return pad, nil
}

func (m *Muxer) fail(err error) {
	m.state = StateError
	m.err = err
	m.log.Error("mxf: muxer entered ERROR state", "error", err)
}

// Err returns the error that drove the muxer into StateError, if any.
func (m *Muxer) Err() error { return m.err }

// sortPads implements spec.md §4.7.8: "Sort sink pads by
// (mxf_metadata_track_type(writer.data_definition_UL),
// source_track.track_number) ascending. This order is stable for the
// remainder of the stream."
func (m *Muxer) sortPads() {
	trackType := func(p *Pad) int {
		if p.Writer.DataDefinitionUL() == ULDataDefinitionPicture {
			return 0
		}
		return 1
	}
	sort.SliceStable(m.pads, func(i, j int) bool {
		ti, tj := trackType(m.pads[i]), trackType(m.pads[j])
		if ti != tj {
			return ti < tj
		}
		return m.pads[i].TrackNumberUL.TrackNumber() < m.pads[j].TrackNumberUL.TrackNumber()
	})
}

// buildMetadataAndHeader transitions HEADER -> DATA: builds the metadata
// graph, assigns track numbers, and writes the header + primer + batch
// and body partition packs (spec.md §4.7.1, §4.7.3, §4.7.4).
func (m *Muxer) buildMetadataAndHeader() error {
	m.sortPads()

	typeCounts := map[UL]int{}
	for _, p := range m.pads {
		typeCounts[p.Writer.DataDefinitionUL()]++
	}
	ordinals := map[UL]int{}

	var tracks []TrackSpec
	for _, p := range m.pads {
		dd := p.Writer.DataDefinitionUL()
		ordinals[dd]++
		trackNumber := AssignTrackNumbers(dd, typeCounts[dd], ordinals[dd])

		gcTemplate := p.Writer.GetTrackNumberTemplate(p.Descriptor, nil)
		gcTrackNumber := gcTemplate | uint32(ordinals[dd]&0xFF)
		p.TrackNumberUL = GCEssenceElementUL.WithTrackNumber(gcTrackNumber)
		p.TrackID = uint32(len(tracks) + 2)

		tracks = append(tracks, TrackSpec{
			Descriptor:     p.Descriptor,
			EditRate:       p.EditRate,
			DataDefinition: dd,
			TrackNumber:    trackNumber,
		})
	}

	minRate := m.pads[0].EditRate
	for _, p := range m.pads[1:] {
		if p.EditRate.Less(minRate) {
			minRate = p.EditRate
		}
	}
	m.minEditRate = minRate

	graph, err := BuildGraph(tracks)
	if err != nil {
		return err
	}
	m.graph = graph

	if _, err := m.writeHeaderPartition(); err != nil {
		return err
	}
	if err := m.writeBodyPartitionPack(); err != nil {
		return err
	}

	m.indexTable = NewIndexTable(2, 1, m.pads[0].EditRate)
	m.indexedPad = m.pads[0]

	return nil
}

func (m *Muxer) writeHeaderPartition() (int64, error) {
	var metadataBuf bytes.Buffer
	primer := NewPrimer()
	for _, obj := range m.graph.EmissionOrder() {
		set := encodeMetadataSet(obj, primer)
		metadataBuf.Write(set.Encode())
	}

	var essenceContainers []UL
	seen := map[UL]bool{}
	for _, obj := range m.graph.All() {
		if pref, ok := obj.(*Preface); ok {
			for _, ec := range pref.EssenceContainers {
				if !seen[ec] {
					seen[ec] = true
					essenceContainers = append(essenceContainers, ec)
				}
			}
		}
	}

	pp := PartitionPack{
		Type: PartitionHeader, Closed: false, Complete: false,
		MajorVersion: 1, MinorVersion: 2, KAGSize: 1,
		OperationalPattern: OperationalPatternUL1a,
		EssenceContainers:  essenceContainers,
	}
	ppBytes := pp.KLV().EncodeFixed4Length()
	primerBytes := KLV{Key: primerPackUL, Value: primer.Encode()}.Encode()

	headerByteCount := int64(len(primerBytes) + metadataBuf.Len())
	pp.HeaderByteCount = uint64(headerByteCount)
	ppBytes = pp.KLV().EncodeFixed4Length()

	if _, err := m.writeKLV("header-partition-pack", partitionPackUL(pp), ppBytes); err != nil {
		return 0, err
	}
	if _, err := m.writeKLV("primer-pack", primerPackUL, primerBytes); err != nil {
		return 0, err
	}
	if _, err := m.writeKLV("metadata-batch", ULPreface, metadataBuf.Bytes()); err != nil {
		return 0, err
	}
	m.headerEnd = m.written
	return m.headerEnd, nil
}

func (m *Muxer) writeBodyPartitionPack() error {
	m.bodyOffset = m.written
	pp := PartitionPack{
		Type: PartitionBody, Closed: true, Complete: true,
		MajorVersion: 1, MinorVersion: 2, KAGSize: 1,
		ThisPartitionOffset: uint64(m.bodyOffset),
		PrevPartitionOffset: 0,
		BodySID:             1,
	}
	b := pp.KLV().EncodeFixed4Length()
	_, err := m.writeKLV("body-partition-pack", partitionPackUL(pp), b)
	return err
}

// Push feeds one essence buffer on pad, advancing the edit-unit cadence
// state machine (spec.md §4.7.5). It drives the HEADER -> DATA
// transition on the first call.
func (m *Muxer) Push(pad *Pad, buf *EssenceBuffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateError {
		return m.err
	}
	if m.state == StateHeader {
		if err := m.buildMetadataAndHeader(); err != nil {
			m.fail(err)
			return err
		}
		m.state = StateData
	}
	if m.state != StateData {
		return fmt.Errorf("mxf: Push called outside DATA state (state=%s)", m.state)
	}

	pad.lastTimestamp = buf.PTS

	result, err := pad.Writer.Write(buf, false)
	if err != nil {
		m.fail(fmt.Errorf("mxf: pad %q write: %w", pad.Name, err))
		return m.err
	}
	if !result.Complete {
		return nil
	}
	return m.emitEditUnit(pad, result.EditUnit, buf.IsKeyframe)
}

func (m *Muxer) emitEditUnit(pad *Pad, payload []byte, isKeyframe bool) error {
	key := GCEssenceElementUL.WithTrackNumber(pad.TrackNumberUL.TrackNumber())
	klv := KLV{Key: key, Value: payload}
	encoded := klv.EncodeFixed4Length()

	streamOffset := uint64(m.written - m.bodyOffset)
	if _, err := m.writeKLV("essence-element:"+pad.Name, key, encoded); err != nil {
		m.fail(err)
		return err
	}
	pad.pos++

	if pad == m.indexedPad {
		m.indexTable.AppendEntry(pad.pos-1, isKeyframe, streamOffset)
	}
	return nil
}

// nextGCTimestamp returns the next Generic Container timestamp: spec.md
// §4.7.5's `(last_gc_position+1) * SECOND * min_edit_rate_d /
// min_edit_rate_n`.
func (m *Muxer) nextGCTimestamp() time.Duration {
	if m.minEditRate.Numerator == 0 {
		return 0
	}
	n := (m.lastGCPosition + 1) * int64(time.Second) * m.minEditRate.Denominator
	return time.Duration(n / m.minEditRate.Numerator)
}

// AdvanceGC advances the cadence clock once every registered pad's
// lastTimestamp has passed nextGCTimestamp (spec.md §4.7.5: "When all
// pads advance past next_gc_timestamp, advance the GC clock and
// repeat").
func (m *Muxer) AdvanceGC() {
	next := m.nextGCTimestamp()
	for _, p := range m.pads {
		if p.EditRate.Numerator == 0 {
			return
		}
		// lastTimestamp is in the pad's edit-rate units; next is a duration.
		ts := time.Duration(p.lastTimestamp * int64(time.Second) * p.EditRate.Denominator / p.EditRate.Numerator)
		if ts < next {
			return
		}
	}
	m.lastGCPosition++
}

// Eos finalizes the stream: durations, footer partition, index segments,
// RIP, and (if out is seekable) a header rewrite with the resolved
// footer_partition_offset (spec.md §4.7.7).
func (m *Muxer) Eos() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateData {
		return fmt.Errorf("mxf: Eos called outside DATA state (state=%s)", m.state)
	}

	for _, pad := range m.pads {
		if result, err := pad.Writer.Write(nil, true); err == nil && result.Complete && len(result.EditUnit) > 0 {
			if err := m.emitEditUnit(pad, result.EditUnit, false); err != nil {
				m.fail(err)
				return err
			}
		}
	}

	m.finalizeDurations()

	footerOffset := m.written
	footerPP := PartitionPack{
		Type: PartitionFooter, Closed: true, Complete: true,
		MajorVersion: 1, MinorVersion: 2, KAGSize: 1,
		ThisPartitionOffset:   uint64(footerOffset),
		PrevPartitionOffset:   uint64(m.bodyOffset),
		FooterPartitionOffset: uint64(footerOffset),
		IndexSID:              2,
		IndexByteCount:        uint64(m.indexTable.TotalByteSize()),
	}
	footerBytes := footerPP.KLV().EncodeFixed4Length()
	if _, err := m.writeKLV("footer-partition-pack", partitionPackUL(footerPP), footerBytes); err != nil {
		m.fail(err)
		return err
	}

	for _, seg := range m.indexTable.Segments {
		b := seg.KLV().EncodeFixed4Length()
		if _, err := m.writeKLV("index-table-segment", indexTableSegmentUL, b); err != nil {
			m.fail(err)
			return err
		}
	}

	rip := RandomIndexPack{Entries: []RIPEntry{
		{BodySID: 0, Offset: 0},
		{BodySID: 1, Offset: uint64(m.bodyOffset)},
		{BodySID: 0, Offset: uint64(footerOffset)},
	}}
	if _, err := m.writeKLV("random-index-pack", randomIndexPackUL, rip.KLV().Encode()); err != nil {
		m.fail(err)
		return err
	}

	if seeker, ok := m.out.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err == nil {
			m.rewriteHeader(footerOffset)
		}
	}

	m.state = StateEOS
	return nil
}

// finalizeDurations fills in every duration spec.md §4.7.7 names: each
// pad's SourceClip.duration = pad.pos (matching its owning Sequence's
// duration), and the timecode track's duration = last_gc_position.
func (m *Muxer) finalizeDurations() {
	posByTrackID := make(map[uint32]int64, len(m.pads))
	for _, p := range m.pads {
		posByTrackID[p.TrackID] = p.pos
	}

	for _, obj := range m.graph.All() {
		if tc, ok := obj.(*TimecodeComponent); ok {
			tc.Duration = m.lastGCPosition
		}
	}

	for _, obj := range m.graph.All() {
		clip, ok := obj.(*SourceClip)
		if !ok {
			continue
		}
		pos, ok := posByTrackID[clip.SourceTrackID]
		if !ok {
			continue
		}
		clip.Duration = pos
	}

	for _, obj := range m.graph.All() {
		seq, ok := obj.(*Sequence)
		if !ok {
			continue
		}
		for _, cid := range seq.Components {
			if clip, ok := m.graph.objects[cid].(*SourceClip); ok {
				seq.Duration = clip.Duration
			}
		}
	}
}

func (m *Muxer) rewriteHeader(footerOffset int64) {
	// Re-encode the same graph (same instance_uids) with
	// footer_partition_offset now known, overwriting the original header
	// partition in place (spec.md §4.7.7).
	saved := m.written
	m.written = 0
	if _, err := m.writeHeaderPartitionWithFooter(footerOffset); err != nil {
		m.log.Warn("mxf: header rewrite failed", "error", err)
	}
	m.written = saved
}

func (m *Muxer) writeHeaderPartitionWithFooter(footerOffset int64) (int64, error) {
	var metadataBuf bytes.Buffer
	primer := NewPrimer()
	for _, obj := range m.graph.EmissionOrder() {
		set := encodeMetadataSet(obj, primer)
		metadataBuf.Write(set.Encode())
	}
	primerBytes := KLV{Key: primerPackUL, Value: primer.Encode()}.Encode()

	pp := PartitionPack{
		Type: PartitionHeader, Closed: true, Complete: true,
		MajorVersion: 1, MinorVersion: 2, KAGSize: 1,
		FooterPartitionOffset: uint64(footerOffset),
		HeaderByteCount:       uint64(len(primerBytes) + metadataBuf.Len()),
		OperationalPattern:    OperationalPatternUL1a,
		EssenceContainers:     m.graph.objects[m.graph.Root].(*Preface).EssenceContainers,
	}
	b := pp.KLV().EncodeFixed4Length()
	before := m.written
	if _, err := m.writeKLV("header-partition-pack(rewrite)", partitionPackUL(pp), b); err != nil {
		return 0, err
	}
	if _, err := m.writeKLV("primer-pack(rewrite)", primerPackUL, primerBytes); err != nil {
		return 0, err
	}
	if _, err := m.writeKLV("metadata-batch(rewrite)", ULPreface, metadataBuf.Bytes()); err != nil {
		return 0, err
	}
	return m.written - before, nil
}

var primerPackUL = mustUL("060e2b34020501010d01020101050100")
