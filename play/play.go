// Package play streams CD audio to beep, either straight off a disc
// session or from a ripped WAV file.
package play

import (
	"encoding/binary"

	"github.com/faiface/beep"

	"github.com/rabidaudio/cdrip"
)

// Format is the beep format of CD-DA audio.
var Format = beep.Format{
	SampleRate:  cdrip.SampleRate,
	NumChannels: cdrip.Channels,
	Precision:   cdrip.BytesPerSample,
}

// bytesPerFrame is the size of one stereo sample pair.
const bytesPerFrame = cdrip.Channels * cdrip.BytesPerSample

// samplesPerSector is the number of stereo samples in a sector.
const samplesPerSector = cdrip.BytesPerSector / bytesPerFrame

// extractFrame decodes one little-endian 16-bit stereo sample pair.
func extractFrame(p []byte) (l, r float64) {
	li := int16(binary.LittleEndian.Uint16(p[0:]))
	ri := int16(binary.LittleEndian.Uint16(p[2:]))
	return float64(li) / (1 << 15), float64(ri) / (1 << 15)
}
