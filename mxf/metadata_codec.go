package mxf

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Property ULs for the metadata-set fields this package emits. Real SMPTE
// RP210 defines a public register of these; this package only needs a
// self-consistent set (each distinct property gets a distinct UL, mapped
// to a local tag via the Primer at emission time), so properties are
// numbered sequentially under a single "local property" template rather
// than transcribed from the register.
func propertyUL(id byte) UL {
	return UL{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x01, 0x06, 0x01, 0x01, id, 0x00, 0x00, 0x00, 0x00}
}

var (
	propInstanceUID     = propertyUL(1)
	propCompanyName     = propertyUL(2)
	propProductName     = propertyUL(3)
	propProductVersion  = propertyUL(4)
	propPlatform        = propertyUL(5)
	propToolkitVersion  = propertyUL(6)
	propDataDefinition  = propertyUL(7)
	propDuration        = propertyUL(8)
	propSourcePackageID = propertyUL(9)
	propSourceTrackID   = propertyUL(10)
	propStartPosition   = propertyUL(11)
	propRoundedTCBase   = propertyUL(12)
	propDropFrame       = propertyUL(13)
	propStartTimecode   = propertyUL(14)
	propComponents      = propertyUL(15)
	propTrackID         = propertyUL(16)
	propTrackNumber     = propertyUL(17)
	propEditRate        = propertyUL(18)
	propOrigin          = propertyUL(19)
	propSequence        = propertyUL(20)
	propEssenceContainer = propertyUL(21)
	propLinkedTrackID   = propertyUL(22)
	propSampleRate      = propertyUL(23)
	propFrameLayout     = propertyUL(24)
	propStoredWidth     = propertyUL(25)
	propStoredHeight    = propertyUL(26)
	propAspectRatio     = propertyUL(27)
	propHorizSubsampling = propertyUL(28)
	propVertSubsampling  = propertyUL(29)
	propComponentDepth   = propertyUL(30)
	propAudioSamplingRate = propertyUL(31)
	propChannels         = propertyUL(32)
	propQuantizationBits = propertyUL(33)
	propDescriptors      = propertyUL(34)
	propPackageUID       = propertyUL(35)
	propName             = propertyUL(36)
	propTracks           = propertyUL(37)
	propDescriptor       = propertyUL(38)
	propPackages         = propertyUL(39)
	propLinkedPackageUID = propertyUL(40)
	propIndexSID         = propertyUL(41)
	propBodySID          = propertyUL(42)
	propIdentification   = propertyUL(43)
	propContentStorage   = propertyUL(44)
	propOperationalPattern = propertyUL(45)
	propEssenceContainers  = propertyUL(46)
)

func encodeUUIDBytes(id uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	return b
}

func encodeUL(ul UL) []byte {
	b := make([]byte, 16)
	copy(b, ul[:])
	return b
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func encodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func encodeUint8(v uint8) []byte { return []byte{v} }

func encodeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func encodeRational(r Rational) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(r.Numerator))
	binary.BigEndian.PutUint32(b[4:8], uint32(r.Denominator))
	return b
}

// encodeString emits s as UTF-16BE, the convention MXF string properties
// use.
func encodeString(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, len(units)*2)
	for i, u := range units {
		binary.BigEndian.PutUint16(b[i*2:], u)
	}
	return b
}

// encodeUUIDArray serializes a strong reference array as a count, an
// item-size, then the items (the same "batch" convention the Primer and
// IndexSegment use for their own arrays/batches).
func encodeUUIDArray(ids []uuid.UUID) []byte {
	var buf bytes.Buffer
	buf.Write(encodeUint32(uint32(len(ids))))
	buf.Write(encodeUint32(16))
	for _, id := range ids {
		buf.Write(encodeUUIDBytes(id))
	}
	return buf.Bytes()
}

func encodeULArray(uls []UL) []byte {
	var buf bytes.Buffer
	buf.Write(encodeUint32(uint32(len(uls))))
	buf.Write(encodeUint32(16))
	for _, ul := range uls {
		buf.Write(encodeUL(ul))
	}
	return buf.Bytes()
}

func appendProperty(buf *bytes.Buffer, primer *Primer, ul UL, value []byte) {
	tag := primer.TagFor(ul)
	buf.Write(encodeUint16(tag))
	buf.Write(encodeUint16(uint16(len(value))))
	buf.Write(value)
}

// encodeMetadataSet serializes one metadata-set Object into its local-set
// encoding: {local_tag(2), length(2), value} entries prefixed by the
// object's type UL (spec.md §6: "each object: {local_tag(2), length(2),
// value} prefixed by its type UL"). primer assigns/reuses the local tag
// for each property UL encountered.
func encodeMetadataSet(obj Object, primer *Primer) KLV {
	var buf bytes.Buffer
	appendProperty(&buf, primer, propInstanceUID, encodeUUIDBytes(obj.InstanceUID()))

	switch o := obj.(type) {
	case *Preface:
		appendProperty(&buf, primer, propIdentification, encodeUUIDBytes(o.Identification))
		appendProperty(&buf, primer, propContentStorage, encodeUUIDBytes(o.ContentStorage))
		appendProperty(&buf, primer, propOperationalPattern, encodeUL(o.OperationalPattern))
		appendProperty(&buf, primer, propEssenceContainers, encodeULArray(o.EssenceContainers))

	case *Identification:
		appendProperty(&buf, primer, propCompanyName, encodeString(o.CompanyName))
		appendProperty(&buf, primer, propProductName, encodeString(o.ProductName))
		appendProperty(&buf, primer, propProductVersion, encodeString(o.ProductVersion))
		appendProperty(&buf, primer, propPlatform, encodeString(o.Platform))
		appendProperty(&buf, primer, propToolkitVersion, encodeString(o.ToolkitVersion))

	case *ContentStorage:
		appendProperty(&buf, primer, propPackages, encodeUUIDArray(o.Packages))

	case *MaterialPackage:
		appendProperty(&buf, primer, propPackageUID, encodeUUIDBytes(o.PackageUID))
		appendProperty(&buf, primer, propName, encodeString(o.Name))
		appendProperty(&buf, primer, propTracks, encodeUUIDArray(o.Tracks))

	case *SourcePackage:
		appendProperty(&buf, primer, propPackageUID, encodeUUIDBytes(o.PackageUID))
		appendProperty(&buf, primer, propName, encodeString(o.Name))
		appendProperty(&buf, primer, propTracks, encodeUUIDArray(o.Tracks))
		appendProperty(&buf, primer, propDescriptor, encodeUUIDBytes(o.Descriptor))

	case *TimelineTrack:
		appendProperty(&buf, primer, propTrackID, encodeUint32(o.TrackID))
		appendProperty(&buf, primer, propTrackNumber, encodeUint32(o.TrackNumber))
		appendProperty(&buf, primer, propEditRate, encodeRational(o.EditRate))
		appendProperty(&buf, primer, propOrigin, encodeInt64(o.Origin))
		appendProperty(&buf, primer, propSequence, encodeUUIDBytes(o.Sequence))

	case *Sequence:
		appendProperty(&buf, primer, propDataDefinition, encodeUL(o.DataDefinition))
		appendProperty(&buf, primer, propDuration, encodeInt64(o.Duration))
		appendProperty(&buf, primer, propComponents, encodeUUIDArray(o.Components))

	case *SourceClip:
		appendProperty(&buf, primer, propDataDefinition, encodeUL(o.DataDefinition))
		appendProperty(&buf, primer, propDuration, encodeInt64(o.Duration))
		appendProperty(&buf, primer, propSourcePackageID, encodeUUIDBytes(o.SourcePackageID))
		appendProperty(&buf, primer, propSourceTrackID, encodeUint32(o.SourceTrackID))
		appendProperty(&buf, primer, propStartPosition, encodeInt64(o.StartPosition))

	case *TimecodeComponent:
		appendProperty(&buf, primer, propDuration, encodeInt64(o.Duration))
		appendProperty(&buf, primer, propRoundedTCBase, encodeUint16(uint16(o.RoundedTimecodeBase)))
		df := uint8(0)
		if o.DropFrame {
			df = 1
		}
		appendProperty(&buf, primer, propDropFrame, encodeUint8(df))
		appendProperty(&buf, primer, propStartTimecode, encodeInt64(o.StartTimecode))

	case *MultipleDescriptor:
		appendProperty(&buf, primer, propSampleRate, encodeRational(o.SampleRate))
		appendProperty(&buf, primer, propDescriptors, encodeUUIDArray(o.Descriptors))

	case *CDCIDescriptor:
		appendProperty(&buf, primer, propEssenceContainer, encodeUL(o.essenceContainer))
		appendProperty(&buf, primer, propLinkedTrackID, encodeUint32(o.LinkedTrackID))
		appendProperty(&buf, primer, propSampleRate, encodeRational(o.SampleRate))
		appendProperty(&buf, primer, propFrameLayout, encodeUint32(uint32(o.FrameLayout)))
		appendProperty(&buf, primer, propStoredWidth, encodeUint32(uint32(o.StoredWidth)))
		appendProperty(&buf, primer, propStoredHeight, encodeUint32(uint32(o.StoredHeight)))
		appendProperty(&buf, primer, propAspectRatio, encodeRational(o.AspectRatio))
		appendProperty(&buf, primer, propHorizSubsampling, encodeUint32(uint32(o.HorizontalSubsampling)))
		appendProperty(&buf, primer, propVertSubsampling, encodeUint32(uint32(o.VerticalSubsampling)))
		appendProperty(&buf, primer, propComponentDepth, encodeUint32(uint32(o.ComponentDepth)))

	case *GenericSoundDescriptor:
		appendProperty(&buf, primer, propEssenceContainer, encodeUL(o.essenceContainer))
		appendProperty(&buf, primer, propLinkedTrackID, encodeUint32(o.LinkedTrackID))
		appendProperty(&buf, primer, propSampleRate, encodeRational(o.SampleRate))
		appendProperty(&buf, primer, propAudioSamplingRate, encodeRational(o.AudioSamplingRate))
		appendProperty(&buf, primer, propChannels, encodeUint32(uint32(o.Channels)))
		appendProperty(&buf, primer, propQuantizationBits, encodeUint32(uint32(o.QuantizationBits)))

	case *EssenceContainerData:
		appendProperty(&buf, primer, propLinkedPackageUID, encodeUUIDBytes(o.LinkedPackageUID))
		appendProperty(&buf, primer, propIndexSID, encodeUint32(o.IndexSID))
		appendProperty(&buf, primer, propBodySID, encodeUint32(o.BodySID))
	}

	return KLV{Key: obj.TypeUL(), Value: buf.Bytes()}
}
