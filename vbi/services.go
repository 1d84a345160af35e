// Package vbi drives the bit slicer across a whole video image: multiple
// scanlines, each checked against a small closed catalog of known VBI
// services, with an adaptive per-line pattern cache so repeated frames
// settle quickly on whichever service actually occupies a given line
// (spec.md §4.2).
package vbi

import "github.com/zsiec/mxfcap/bitslicer"

// VideoStd is a bitset of analog video standards a service may appear in.
type VideoStd uint32

const (
	StdNTSCM VideoStd = 1 << iota
	StdPAL
	StdSECAM
	StdPALM
)

// Set identifies one or more services as a bitmask, so callers can request
// "all Teletext variants" or "both CC fields" in one AddServices call.
type Set uint32

const (
	TeletextA Set = 1 << iota
	TeletextB
	TeletextC
	TeletextD
	VPS
	WSS625
	WSSCPR1204
	Caption525F1
	Caption525F2
	Caption625F1
	Caption625F2
	CEA708RawF1
	CEA708RawF2
	NABTS
	VITC525
	VITC625
	Teletext625B4
	ClosedCaption21
	WST
	AntiopeB
)

// AllServices is the union of every known service flag.
const AllServices Set = TeletextA | TeletextB | TeletextC | TeletextD |
	VPS | WSS625 | WSSCPR1204 | Caption525F1 | Caption525F2 |
	Caption625F1 | Caption625F2 | CEA708RawF1 | CEA708RawF2 |
	NABTS | VITC525 | VITC625 | Teletext625B4 | ClosedCaption21 |
	WST | AntiopeB

// Service is one read-only catalog row (spec.md §3 "Service Table").
type Service struct {
	Name          string
	Flag          Set
	VideoStdSet   VideoStd
	FirstLine     [2]int // per field
	LastLine      [2]int
	OffsetNS      int
	CRIRate       int
	BitRate       int
	CRIFRCPattern uint32
	CRIFRCMask    uint32
	CRIBits       int
	FRCBits       int
	PayloadBits   int
	Modulation    bitslicer.Modulation
	Flags         int
}

// Flags bits used by Service.Flags.
const (
	FlagField1Only = 1 << iota
	FlagField2Only
	FlagMergesWithF2 // this service's F1 job shares a slot with the F2 counterpart
)

// ServiceTable is the closed, process-wide catalog of known VBI services
// (spec.md §7 "The service table and CDP-fps table are process-wide
// read-only constants"). Figures are representative of each standard's
// real-world CRI/FRC/payload layout, not reproduced from any single
// reference decoder.
var ServiceTable = []Service{
	{
		Name: "teletext-a", Flag: TeletextA, VideoStdSet: StdPAL | StdSECAM,
		FirstLine: [2]int{6, 318}, LastLine: [2]int{22, 335}, OffsetNS: 9_520,
		CRIRate: 6203125, BitRate: 6203125,
		CRIFRCPattern: 0x00FF, CRIFRCMask: 0x00FF, CRIBits: 8, FRCBits: 0,
		PayloadBits: 360, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "teletext-b", Flag: TeletextB, VideoStdSet: StdPAL | StdSECAM,
		FirstLine: [2]int{6, 318}, LastLine: [2]int{22, 335}, OffsetNS: 10_300,
		CRIRate: 6937500, BitRate: 6937500,
		CRIFRCPattern: 0x1E, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 360, Modulation: bitslicer.NRZLSB,
		Flags: FlagMergesWithF2,
	},
	{
		Name: "teletext-c", Flag: TeletextC, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{10, 273}, LastLine: [2]int{21, 284}, OffsetNS: 10_500,
		CRIRate: 5727272, BitRate: 5727272,
		CRIFRCPattern: 0x1E, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 288, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "teletext-d", Flag: TeletextD, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{10, 273}, LastLine: [2]int{21, 284}, OffsetNS: 10_500,
		CRIRate: 5727272, BitRate: 5727272,
		CRIFRCPattern: 0x9A, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 276, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "vps", Flag: VPS, VideoStdSet: StdPAL,
		FirstLine: [2]int{16, 0}, LastLine: [2]int{16, 0}, OffsetNS: 12_500,
		CRIRate: 5000000, BitRate: 2500000,
		CRIFRCPattern: 0x55, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 0,
		PayloadBits: 104, Modulation: bitslicer.BiphaseMSB,
		Flags: FlagField1Only,
	},
	{
		Name: "wss-625", Flag: WSS625, VideoStdSet: StdPAL | StdSECAM,
		FirstLine: [2]int{23, 0}, LastLine: [2]int{23, 0}, OffsetNS: 11_000,
		CRIRate: 5000000, BitRate: 1000000,
		CRIFRCPattern: 0x1E, CRIFRCMask: 0x1F, CRIBits: 5, FRCBits: 0,
		PayloadBits: 14, Modulation: bitslicer.BiphaseLSB,
		Flags: FlagField1Only,
	},
	{
		Name: "wss-cpr1204", Flag: WSSCPR1204, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{20, 283}, LastLine: [2]int{20, 283}, OffsetNS: 11_200,
		CRIRate: 1000000, BitRate: 1000000,
		CRIFRCPattern: 0x07, CRIFRCMask: 0x07, CRIBits: 3, FRCBits: 0,
		PayloadBits: 30, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "cc-525-f1", Flag: Caption525F1, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{21, 0}, LastLine: [2]int{21, 0}, OffsetNS: 10_500,
		CRIRate: 1006976, BitRate: 503488,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField1Only | FlagMergesWithF2,
	},
	{
		Name: "cc-525-f2", Flag: Caption525F2, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{0, 284}, LastLine: [2]int{0, 284}, OffsetNS: 10_500,
		CRIRate: 1006976, BitRate: 503488,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField2Only,
	},
	{
		Name: "cc-625-f1", Flag: Caption625F1, VideoStdSet: StdPAL,
		FirstLine: [2]int{22, 0}, LastLine: [2]int{22, 0}, OffsetNS: 10_500,
		CRIRate: 1000000, BitRate: 500000,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField1Only | FlagMergesWithF2,
	},
	{
		Name: "cc-625-f2", Flag: Caption625F2, VideoStdSet: StdPAL,
		FirstLine: [2]int{0, 335}, LastLine: [2]int{0, 335}, OffsetNS: 10_500,
		CRIRate: 1000000, BitRate: 500000,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField2Only,
	},
	{
		Name: "cea708-raw-f1", Flag: CEA708RawF1, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{21, 0}, LastLine: [2]int{21, 0}, OffsetNS: 10_500,
		CRIRate: 1006976, BitRate: 503488,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField1Only | FlagMergesWithF2,
	},
	{
		Name: "cea708-raw-f2", Flag: CEA708RawF2, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{0, 284}, LastLine: [2]int{0, 284}, OffsetNS: 10_500,
		CRIRate: 1006976, BitRate: 503488,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField2Only,
	},
	{
		Name: "nabts", Flag: NABTS, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{10, 273}, LastLine: [2]int{21, 284}, OffsetNS: 10_500,
		CRIRate: 5727272, BitRate: 5727272,
		CRIFRCPattern: 0xE7, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 264, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "vitc-525", Flag: VITC525, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{14, 277}, LastLine: [2]int{14, 277}, OffsetNS: 10_500,
		CRIRate: 2000000, BitRate: 2000000,
		CRIFRCPattern: 0x3FFC, CRIFRCMask: 0x3FFF, CRIBits: 20, FRCBits: 0,
		PayloadBits: 70, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "vitc-625", Flag: VITC625, VideoStdSet: StdPAL,
		FirstLine: [2]int{19, 332}, LastLine: [2]int{19, 332}, OffsetNS: 10_500,
		CRIRate: 2000000, BitRate: 2000000,
		CRIFRCPattern: 0x3FFC, CRIFRCMask: 0x3FFF, CRIBits: 20, FRCBits: 0,
		PayloadBits: 70, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "teletext-625-b4", Flag: Teletext625B4, VideoStdSet: StdPAL,
		FirstLine: [2]int{7, 319}, LastLine: [2]int{22, 335}, OffsetNS: 10_300,
		CRIRate: 6937500, BitRate: 6937500,
		CRIFRCPattern: 0x1E, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 360, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "cc-21", Flag: ClosedCaption21, VideoStdSet: StdNTSCM,
		FirstLine: [2]int{21, 0}, LastLine: [2]int{21, 0}, OffsetNS: 10_500,
		CRIRate: 1006976, BitRate: 503488,
		CRIFRCPattern: 0x0003, CRIFRCMask: 0x0007, CRIBits: 7, FRCBits: 0,
		PayloadBits: 16, Modulation: bitslicer.NRZLSB,
		Flags: FlagField1Only,
	},
	{
		Name: "wst", Flag: WST, VideoStdSet: StdPAL,
		FirstLine: [2]int{6, 318}, LastLine: [2]int{22, 335}, OffsetNS: 10_300,
		CRIRate: 6937500, BitRate: 6937500,
		CRIFRCPattern: 0x1E, CRIFRCMask: 0xFF, CRIBits: 8, FRCBits: 8,
		PayloadBits: 360, Modulation: bitslicer.NRZLSB,
	},
	{
		Name: "antiope-b", Flag: AntiopeB, VideoStdSet: StdSECAM,
		FirstLine: [2]int{6, 318}, LastLine: [2]int{22, 335}, OffsetNS: 9_520,
		CRIRate: 6203125, BitRate: 6203125,
		CRIFRCPattern: 0x00FF, CRIFRCMask: 0x00FF, CRIBits: 8, FRCBits: 0,
		PayloadBits: 360, Modulation: bitslicer.NRZLSB,
	},
}

// Lookup returns the Service registered under flag, or false if flag is
// unknown (not a member of AllServices, or carries more than one bit).
func Lookup(flag Set) (Service, bool) {
	for _, s := range ServiceTable {
		if s.Flag == flag {
			return s, true
		}
	}
	return Service{}, false
}
