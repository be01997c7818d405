package play

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/faiface/beep"

	"github.com/rabidaudio/cdrip/wav"
)

// FileStreamer plays a WAV file written by the ripper.
type FileStreamer struct {
	f      *os.File
	r      *bufio.Reader
	frames int
	pos    int
	err    error
	buf    []byte
}

// OpenFile opens the WAV file at path. Files that don't carry a CD-DA
// header are rejected.
func OpenFile(path string) (*FileStreamer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	h, err := wav.ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("play: %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	// trust the file over the header for truncated rips
	size := min(int64(h.DataSize), stat.Size()-wav.HeaderSize)
	return &FileStreamer{
		f:      f,
		r:      bufio.NewReader(f),
		frames: int(size / bytesPerFrame),
	}, nil
}

func (s *FileStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	want := min(len(samples), s.frames-s.pos)
	if want <= 0 {
		return 0, false
	}
	if cap(s.buf) < want*bytesPerFrame {
		s.buf = make([]byte, want*bytesPerFrame)
	}
	buf := s.buf[:want*bytesPerFrame]

	read, err := io.ReadFull(s.r, buf)
	n = read / bytesPerFrame
	for i := range n {
		samples[i][0], samples[i][1] = extractFrame(buf[i*bytesPerFrame:])
	}
	s.pos += n
	if err != nil {
		if err != io.ErrUnexpectedEOF && err != io.EOF {
			s.err = err
		}
		return n, n > 0
	}
	return n, true
}

func (s *FileStreamer) Err() error {
	return s.err
}

// Len returns the number of stereo samples in the file.
func (s *FileStreamer) Len() int {
	return s.frames
}

func (s *FileStreamer) Position() int {
	return s.pos
}

func (s *FileStreamer) Seek(p int) error {
	if p < 0 || p > s.frames {
		return fmt.Errorf("play: seek to %d outside [0, %d]", p, s.frames)
	}
	if _, err := s.f.Seek(wav.HeaderSize+int64(p)*bytesPerFrame, io.SeekStart); err != nil {
		return err
	}
	s.r.Reset(s.f)
	s.pos = p
	return nil
}

func (s *FileStreamer) Close() error {
	s.buf = nil
	return s.f.Close()
}

var _ beep.StreamSeekCloser = (*FileStreamer)(nil)
