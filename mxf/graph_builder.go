package mxf

import (
	"os"
	"runtime"

	"github.com/google/uuid"
)

// TrackSpec describes one sink pad's contribution to the metadata graph:
// its resolved essence descriptor, edit rate, and data definition.
type TrackSpec struct {
	Descriptor     EssenceDescriptor
	EditRate       Rational
	DataDefinition UL
	TrackNumber    uint32 // type count << 16 | ordinal, see AssignTrackNumbers
}

// BuildGraph constructs the metadata object graph in the topological
// order spec.md §4.7.3 specifies, called once when the muxer transitions
// HEADER -> DATA.
func BuildGraph(tracks []TrackSpec) (*Graph, error) {
	g := NewGraph()

	ident := &Identification{
		object:         newObject(),
		CompanyName:    "mxfcap",
		ProductName:    "mxfmux",
		ProductVersion: "1.0.0",
		Platform:       runtimePlatform(),
		ToolkitVersion: "1.0.0",
	}
	g.Add(ident)

	minRate := tracks[0].EditRate
	for _, t := range tracks[1:] {
		if t.EditRate.Less(minRate) {
			minRate = t.EditRate
		}
	}

	materialUID := uuid.New()
	sourceUID := uuid.New()

	material := &MaterialPackage{object: newObject(), PackageUID: materialUID, Name: "material package"}
	source := &SourcePackage{object: newObject(), PackageUID: sourceUID, Name: "file source package"}

	tcComponent := &TimecodeComponent{object: newObject(), RoundedTimecodeBase: roundRate(minRate), StartTimecode: 0}
	tcSequence := &Sequence{object: newObject(), DataDefinition: ULDataDefinitionTimecode, Components: []uuid.UUID{g.Add(tcComponent)}}
	tcTrack := &TimelineTrack{object: newObject(), TrackID: 1, TrackNumber: 0, EditRate: minRate, Sequence: g.Add(tcSequence)}
	material.Tracks = append(material.Tracks, g.Add(tcTrack))

	sourceTCComponent := &TimecodeComponent{object: newObject(), RoundedTimecodeBase: roundRate(minRate), StartTimecode: 0}
	sourceTCSequence := &Sequence{object: newObject(), DataDefinition: ULDataDefinitionTimecode, Components: []uuid.UUID{g.Add(sourceTCComponent)}}
	sourceTCTrack := &TimelineTrack{object: newObject(), TrackID: 1, TrackNumber: 0, EditRate: minRate, Sequence: g.Add(sourceTCSequence)}
	source.Tracks = append(source.Tracks, g.Add(sourceTCTrack))

	var descriptorUIDs []uuid.UUID

	for i, t := range tracks {
		trackID := uint32(i + 2)

		clip := &SourceClip{
			object:          newObject(),
			DataDefinition:  t.DataDefinition,
			SourcePackageID: sourceUID,
			SourceTrackID:   trackID,
		}
		seq := &Sequence{object: newObject(), DataDefinition: t.DataDefinition, Components: []uuid.UUID{g.Add(clip)}}
		track := &TimelineTrack{
			object: newObject(), TrackID: trackID, TrackNumber: t.TrackNumber,
			EditRate: t.EditRate, Sequence: g.Add(seq),
		}
		material.Tracks = append(material.Tracks, g.Add(track))

		srcClip := &SourceClip{
			object:          newObject(),
			DataDefinition:  t.DataDefinition,
			SourcePackageID: uuid.Nil, // self-clip: essence lives in this package
			SourceTrackID:   trackID,
		}
		srcSeq := &Sequence{object: newObject(), DataDefinition: t.DataDefinition, Components: []uuid.UUID{g.Add(srcClip)}}
		srcTrack := &TimelineTrack{
			object: newObject(), TrackID: trackID, TrackNumber: t.TrackNumber,
			EditRate: t.EditRate, Sequence: g.Add(srcSeq),
		}
		source.Tracks = append(source.Tracks, g.Add(srcTrack))

		g.Add(t.Descriptor)
		descriptorUIDs = append(descriptorUIDs, t.Descriptor.InstanceUID())
	}

	if len(descriptorUIDs) > 1 {
		md := &MultipleDescriptor{object: newObject(), SampleRate: minRate, Descriptors: descriptorUIDs}
		source.Descriptor = g.Add(md)
	} else if len(descriptorUIDs) == 1 {
		source.Descriptor = descriptorUIDs[0]
	}

	g.Add(material)
	g.Add(source)

	storage := &ContentStorage{object: newObject(), Packages: []uuid.UUID{materialUID, sourceUID}}
	g.Add(storage)

	ecd := &EssenceContainerData{object: newObject(), LinkedPackageUID: sourceUID, IndexSID: 2, BodySID: 1}
	g.Add(ecd)

	essenceContainers := uniqueContainerULs(tracks)

	preface := &Preface{
		object:             newObject(),
		Identification:     ident.InstanceUID(),
		ContentStorage:     storage.InstanceUID(),
		OperationalPattern: OperationalPatternUL1a,
		EssenceContainers:  essenceContainers,
	}
	g.Add(preface)
	g.Root = preface.InstanceUID()

	return g, nil
}

func uniqueContainerULs(tracks []TrackSpec) []UL {
	seen := make(map[UL]bool)
	var out []UL
	for _, t := range tracks {
		ul := t.Descriptor.EssenceContainerUL()
		if !seen[ul] {
			seen[ul] = true
			out = append(out, ul)
		}
	}
	return out
}

func roundRate(r Rational) int {
	if r.Denominator == 0 {
		return 0
	}
	return int((r.Numerator + r.Denominator/2) / r.Denominator)
}

func runtimePlatform() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return runtime.GOOS + "/" + runtime.GOARCH + "@" + host
}

// AssignTrackNumbers implements spec.md §3's post-pass: `track_number =
// (type_count << 16) | ordinal` once every essence-container UL's bytes
// 12..15 have been resolved. typeCount is how many sibling tracks share
// dataDefinition; ordinal is 1-based within that type. dataDefinition
// itself does not enter the result.
func AssignTrackNumbers(dataDefinition UL, typeCount, ordinal int) uint32 {
	return uint32(typeCount)<<16 | uint32(ordinal)
}
