package ccconvert

import "github.com/zsiec/mxfcap/cc708"

// dropFramesPerMinute is the SMPTE drop-frame count used by both 30000/1001
// and 60000/1001 grids (spec.md §4.4: "first two frames of every minute
// except every tenth").
const dropFramesPerMinute = 2

// FrameCountToTimecode converts an absolute frame count to a Timecode at
// the given nominal integer fps, applying the drop-frame correction when
// dropFrame is set.
func FrameCountToTimecode(frameCount, fps int, dropFrame bool) cc708.Timecode {
	n := frameCount
	if dropFrame {
		framesPerMin := fps*60 - dropFramesPerMinute
		framesPer10Min := fps*600 - dropFramesPerMinute*9
		d := n / framesPer10Min
		m := n % framesPer10Min
		if m > dropFramesPerMinute {
			n = n + dropFramesPerMinute*9*d + dropFramesPerMinute*((m-dropFramesPerMinute)/framesPerMin)
		} else {
			n = n + dropFramesPerMinute*9*d
		}
	}
	frames := n % fps
	seconds := (n / fps) % 60
	minutes := (n / (fps * 60)) % 60
	hours := n / (fps * 3600)
	return cc708.Timecode{Hours: hours, Minutes: minutes, Seconds: seconds, Frames: frames, DropFrame: dropFrame}
}

// TimecodeToFrameCount is the inverse of FrameCountToTimecode.
func TimecodeToFrameCount(tc cc708.Timecode, fps int) int {
	n := fps*3600*tc.Hours + fps*60*tc.Minutes + fps*tc.Seconds + tc.Frames
	if tc.DropFrame {
		totalMinutes := 60*tc.Hours + tc.Minutes
		n -= dropFramesPerMinute * (totalMinutes - totalMinutes/10)
	}
	return n
}

// isDropFrameInvalid reports whether frame 0 or 1 of a non-tenth minute
// is an invalid drop-frame position.
func isDropFrameInvalid(tc cc708.Timecode) bool {
	return tc.Seconds == 0 && tc.Frames < dropFramesPerMinute && tc.Minutes%10 != 0
}

// InterpolateTimecode computes the output frame number for an input
// timecode scaled by scaleNum/scaleDen, then walks past any timecode
// position invalid under outFPS drop-frame numbering (spec.md §4.4
// "Timecode interpolation").
func InterpolateTimecode(in cc708.Timecode, inFPS int, scaleNum, scaleDen, outFPS int, outDropFrame bool) cc708.Timecode {
	inFrame := TimecodeToFrameCount(in, inFPS)
	outFrame := (inFrame * scaleNum) / scaleDen

	out := FrameCountToTimecode(outFrame, outFPS, outDropFrame)
	if !outDropFrame {
		return out
	}
	for isDropFrameInvalid(out) {
		outFrame++
		out = FrameCountToTimecode(outFrame, outFPS, outDropFrame)
	}
	return out
}

// InferDropFrame applies spec.md §4.4's "Drop-frame inference" rule:
// 30000/1001 and 60000/1001 output grids force drop-frame on; any other
// denominator forces it off.
func InferDropFrame(outNum, outDen int, inputDropFrame bool) bool {
	if outDen == 1001 && (outNum == 30000 || outNum == 60000) {
		return true
	}
	if outDen != 1001 {
		return false
	}
	return inputDropFrame
}
