// Package wav writes and reads the canonical 44 byte RIFF/WAVE header
// for CD-DA audio: uncompressed linear PCM, 44.1KHz, 16-bit, stereo.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rabidaudio/cdrip"
)

// HeaderSize is the number of bytes WriteHeader emits.
const HeaderSize = 44

// riffOverhead is the part of the header counted by the RIFF size field,
// i.e. everything but the 8 byte "RIFF"+size prefix.
const riffOverhead = HeaderSize - 8

const (
	fmtChunkSize   = 16
	formatPCM      = 1
	blockAlign     = cdrip.Channels * cdrip.BytesPerSample
	avgBytesPerSec = cdrip.SampleRate * blockAlign
	maxDataSize    = 1<<32 - 1 - riffOverhead
	chunkIDRIFF    = "RIFF"
	chunkIDWave    = "WAVE"
	chunkIDFormat  = "fmt "
	chunkIDData    = "data"
)

// Header describes the fields of a CD-DA wave header.
type Header struct {
	RIFFSize      uint32 // DataSize + 36
	FormatSize    uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// NewHeader returns the header for dataSize bytes of CD-DA audio.
func NewHeader(dataSize uint32) Header {
	return Header{
		RIFFSize:      dataSize + riffOverhead,
		FormatSize:    fmtChunkSize,
		Format:        formatPCM,
		Channels:      cdrip.Channels,
		SampleRate:    cdrip.SampleRate,
		ByteRate:      avgBytesPerSec,
		BlockAlign:    blockAlign,
		BitsPerSample: cdrip.BitsPerSample,
		DataSize:      dataSize,
	}
}

// Bytes encodes the header in little-endian field order.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], chunkIDRIFF)
	binary.LittleEndian.PutUint32(b[4:8], h.RIFFSize)
	copy(b[8:12], chunkIDWave)
	copy(b[12:16], chunkIDFormat)
	binary.LittleEndian.PutUint32(b[16:20], h.FormatSize)
	binary.LittleEndian.PutUint16(b[20:22], h.Format)
	binary.LittleEndian.PutUint16(b[22:24], h.Channels)
	binary.LittleEndian.PutUint32(b[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(b[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(b[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(b[34:36], h.BitsPerSample)
	copy(b[36:40], chunkIDData)
	binary.LittleEndian.PutUint32(b[40:44], h.DataSize)
	return b
}

// WriteHeader writes the header for dataSize bytes of audio to w.
// No payload is written; the caller streams it immediately after.
//
// WriteHeader fails with [cdrip.ErrInvalidStream] if w is nil or
// can't be written to.
func WriteHeader(w io.Writer, dataSize uint32) error {
	if w == nil {
		return cdrip.ErrInvalidStream
	}
	if dataSize > maxDataSize {
		return cdrip.Wrap(cdrip.ErrInvalidStream, fmt.Errorf("wav: data size %d overflows riff size", dataSize))
	}
	n, err := w.Write(NewHeader(dataSize).Bytes())
	if err != nil {
		return cdrip.Wrap(cdrip.ErrInvalidStream, err)
	}
	if n != HeaderSize {
		return cdrip.Wrap(cdrip.ErrInvalidStream, io.ErrShortWrite)
	}
	return nil
}

// ReadHeader reads a 44 byte header from r and checks that it describes
// CD-DA audio.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return h, fmt.Errorf("wav: read header: %w", err)
	}
	if !bytes.Equal(b[0:4], []byte(chunkIDRIFF)) || !bytes.Equal(b[8:12], []byte(chunkIDWave)) {
		return h, fmt.Errorf("wav: not a RIFF/WAVE file")
	}
	if !bytes.Equal(b[12:16], []byte(chunkIDFormat)) || !bytes.Equal(b[36:40], []byte(chunkIDData)) {
		return h, fmt.Errorf("wav: unexpected chunk layout")
	}
	h.RIFFSize = binary.LittleEndian.Uint32(b[4:8])
	h.FormatSize = binary.LittleEndian.Uint32(b[16:20])
	h.Format = binary.LittleEndian.Uint16(b[20:22])
	h.Channels = binary.LittleEndian.Uint16(b[22:24])
	h.SampleRate = binary.LittleEndian.Uint32(b[24:28])
	h.ByteRate = binary.LittleEndian.Uint32(b[28:32])
	h.BlockAlign = binary.LittleEndian.Uint16(b[32:34])
	h.BitsPerSample = binary.LittleEndian.Uint16(b[34:36])
	h.DataSize = binary.LittleEndian.Uint32(b[40:44])

	want := NewHeader(h.DataSize)
	if h != want {
		return h, fmt.Errorf("wav: not CD-DA audio: %+v", h)
	}
	return h, nil
}
