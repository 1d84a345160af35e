package mxf

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Rational is a numerator/denominator pair used throughout MXF for edit
// rates and sample rates.
type Rational struct {
	Numerator, Denominator int64
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator) }

// Less compares two edit rates by their real value, used to compute
// min_edit_rate (spec.md §3 "MXF Metadata Object Graph").
func (r Rational) Less(other Rational) bool {
	return r.Numerator*other.Denominator < other.Numerator*r.Denominator
}

// Object is any node in the metadata object graph: every MXF metadata
// set has an instance_uid and a type UL (spec.md §3: "A directed graph
// of typed objects, each with a UUID instance_uid").
type Object interface {
	InstanceUID() uuid.UUID
	TypeUL() UL
}

type object struct {
	uid uuid.UUID
}

func (o object) InstanceUID() uuid.UUID { return o.uid }

func newObject() object { return object{uid: uuid.New()} }

// Identification records the host identity, version and platform of the
// tool that wrote the file (spec.md §4.7.3 step 1).
type Identification struct {
	object
	CompanyName     string
	ProductName     string
	ProductVersion  string
	Platform        string
	ToolkitVersion  string
}

func (i *Identification) TypeUL() UL { return ULIdentification }

// SourceClip is a leaf clip reference: source_package_id + source_track_id
// + start_position, or a "self clip" when SourcePackageID is the zero UUID
// (spec.md §4.7.3 step 4: "SourceClip { source_package_id = ...,
// source_track_id = n+1 }").
type SourceClip struct {
	object
	DataDefinition  UL
	Duration        int64
	SourcePackageID uuid.UUID
	SourceTrackID   uint32
	StartPosition   int64
}

func (s *SourceClip) TypeUL() UL { return ULSourceClip }

// TimecodeComponent is the structural component of a material package's
// timecode track.
type TimecodeComponent struct {
	object
	Duration           int64
	RoundedTimecodeBase int
	DropFrame          bool
	StartTimecode      int64
}

func (t *TimecodeComponent) TypeUL() UL { return ULTimecodeComponent }

// Sequence wraps one or more structural components end to end; this
// package only ever builds single-component sequences (one SourceClip or
// one TimecodeComponent) since sources are not edited.
type Sequence struct {
	object
	DataDefinition UL
	Duration       int64
	Components     []uuid.UUID // strong reference array
}

func (s *Sequence) TypeUL() UL { return ULSequence }

// TimelineTrack is one track of a package: an edit rate plus an owned
// Sequence (spec.md §4.7.3 steps 3-4).
type TimelineTrack struct {
	object
	TrackID     uint32
	TrackNumber uint32
	EditRate    Rational
	Origin      int64
	Sequence    uuid.UUID // strong reference
}

func (t *TimelineTrack) TypeUL() UL { return ULTimelineTrack }

// EssenceDescriptor is any of the typed essence descriptors (CDCI,
// GenericSound, ...) this package constructs. Concrete descriptor types
// embed descriptorBase and implement EssenceContainerUL.
type EssenceDescriptor interface {
	Object
	EssenceContainerUL() UL
}

type descriptorBase struct {
	object
	essenceContainer UL
	LinkedTrackID    uint32
}

func (d descriptorBase) EssenceContainerUL() UL { return d.essenceContainer }

// NewCDCIDescriptor creates a CDCIDescriptor bound to essenceContainer, for
// use by essence-element-writer implementations outside this package
// (spec.md §4.7.2: writers return a descriptor from GetDescriptor without
// ever touching the graph directly).
func NewCDCIDescriptor(essenceContainer UL) *CDCIDescriptor {
	return &CDCIDescriptor{descriptorBase: descriptorBase{object: newObject(), essenceContainer: essenceContainer}}
}

// NewGenericSoundDescriptor creates a GenericSoundDescriptor bound to
// essenceContainer.
func NewGenericSoundDescriptor(essenceContainer UL) *GenericSoundDescriptor {
	return &GenericSoundDescriptor{descriptorBase: descriptorBase{object: newObject(), essenceContainer: essenceContainer}}
}

// CDCIDescriptor describes uncompressed/lightly-compressed picture
// essence (spec.md §3: "typed essence descriptors (... CDCI ...)").
type CDCIDescriptor struct {
	descriptorBase
	SampleRate            Rational
	FrameLayout           int
	StoredWidth           int
	StoredHeight          int
	AspectRatio           Rational
	HorizontalSubsampling int
	VerticalSubsampling   int
	ComponentDepth        int
}

func (d *CDCIDescriptor) TypeUL() UL { return ULCDCIDescriptor }

// GenericSoundDescriptor describes PCM or compressed audio essence.
type GenericSoundDescriptor struct {
	descriptorBase
	SampleRate   Rational
	AudioSamplingRate Rational
	Channels     int
	QuantizationBits int
}

func (d *GenericSoundDescriptor) TypeUL() UL { return ULGenericSoundDescriptor }

// MultipleDescriptor wraps >1 essence descriptor under a single file
// package track (spec.md §4.7.3 step 5).
type MultipleDescriptor struct {
	object
	SampleRate  Rational
	Descriptors []uuid.UUID // strong reference array
}

func (m *MultipleDescriptor) TypeUL() UL { return ULMultipleDescriptor }

// SourcePackage is the file-source package: one track per essence
// container plus a timecode track, and a descriptor (single or
// Multiple) describing the essence (spec.md §4.7.3 step 4).
type SourcePackage struct {
	object
	PackageUID uuid.UUID
	Name       string
	Tracks     []uuid.UUID // strong reference array
	Descriptor uuid.UUID   // strong reference, single or MultipleDescriptor
}

func (s *SourcePackage) TypeUL() UL { return ULSourcePackage }

// MaterialPackage is the single top-level playback package (spec.md §3
// invariant: "Exactly one MaterialPackage").
type MaterialPackage struct {
	object
	PackageUID uuid.UUID
	Name       string
	Tracks     []uuid.UUID
}

func (m *MaterialPackage) TypeUL() UL { return ULMaterialPackage }

// ContentStorage owns the package set (spec.md §3 invariant: "exactly one
// ContentStorage").
type ContentStorage struct {
	object
	Packages []uuid.UUID // strong reference array: MaterialPackage + SourcePackages
}

func (c *ContentStorage) TypeUL() UL { return ULContentStorage }

// EssenceContainerData links a SourcePackage to its body/index stream
// IDs (spec.md §4.7.3 step 6: "index_sid = 2, body_sid = 1").
type EssenceContainerData struct {
	object
	LinkedPackageUID uuid.UUID
	IndexSID         uint32
	BodySID          uint32
}

func (e *EssenceContainerData) TypeUL() UL { return ULEssenceContainerData }

// Preface is the single root of the metadata graph (spec.md §3
// invariant: "Exactly one Preface").
type Preface struct {
	object
	Identification uuid.UUID
	ContentStorage uuid.UUID
	OperationalPattern UL
	EssenceContainers  []UL
}

func (p *Preface) TypeUL() UL { return ULPreface }

// Graph is the materialized metadata object graph: a typed map from
// instance_uid to Object plus the root Preface, per spec.md §9's design
// note ("{typed_map: UUID -> Object, root: UUID}").
type Graph struct {
	objects map[uuid.UUID]Object
	Root    uuid.UUID
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{objects: make(map[uuid.UUID]Object)}
}

// Add inserts obj into the graph and returns its instance_uid.
func (g *Graph) Add(obj Object) uuid.UUID {
	g.objects[obj.InstanceUID()] = obj
	return obj.InstanceUID()
}

// Get resolves a strong reference.
func (g *Graph) Get(id uuid.UUID) (Object, bool) {
	o, ok := g.objects[id]
	return o, ok
}

// All returns every object in the graph, ordered deterministically by
// instance_uid so callers (e.g. the header metadata batch writer) get a
// stable emission order across runs.
func (g *Graph) All() []Object {
	out := make([]Object, 0, len(g.objects))
	for _, o := range g.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstanceUID().String() < out[j].InstanceUID().String()
	})
	return out
}

// EmissionOrder returns the graph's objects sorted so that, within each
// SourcePackage's descriptor chain, descriptors are emitted between any
// owning MultipleDescriptor and the SourcePackage itself (spec.md §4.7.3
// step 7: "Sort the emission list so descriptors come between
// MultipleDescriptor and SourcePackage").
func (g *Graph) EmissionOrder() []Object {
	rank := func(o Object) int {
		switch o.(type) {
		case *Preface:
			return 0
		case *Identification:
			return 1
		case *ContentStorage:
			return 2
		case *MaterialPackage:
			return 3
		case *TimelineTrack, *TimecodeComponent:
			return 4
		case *Sequence, *SourceClip:
			return 5
		case EssenceDescriptor:
			return 7
		case *MultipleDescriptor:
			return 6
		case *SourcePackage:
			return 9
		case *EssenceContainerData:
			return 10
		default:
			return 11
		}
	}
	all := g.All()
	sort.SliceStable(all, func(i, j int) bool {
		return rank(all[i]) < rank(all[j])
	})
	return all
}
