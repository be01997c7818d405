package disc

// Driver locates a cd drive and opens it. It is the entry point to
// the device-access subsystem; see package audiocd for the libcdparanoia
// implementation.
type Driver interface {
	Open() (Drive, error)
}

// TrackFormat is the format of a track as reported in the table of contents.
type TrackFormat int

const (
	FormatAudio TrackFormat = iota
	FormatData
)

func (f TrackFormat) String() string {
	switch f {
	case FormatAudio:
		return "audio"
	case FormatData:
		return "data"
	default:
		return "unknown"
	}
}

// Drive is an opened cd drive with a readable disc.
//
// Track arguments are 1-indexed positions in the table of contents,
// 1 <= track <= TrackCount.
type Drive interface {
	// FirstTrack returns the number of the first track on the disc.
	// It fails if no disc is present.
	FirstTrack() (int, error)
	TrackCount() (int, error)
	TrackFormat(track int) (TrackFormat, error)
	// TrackOffset returns the absolute frame offset of the start of the
	// track, including the two second pregap.
	TrackOffset(track int) (int32, error)
	// TrackSectors returns the first and last sector of the track, inclusive.
	TrackSectors(track int) (first, last int32, err error)
	// LeadOut returns the absolute frame offset of the lead-out.
	LeadOut() (int32, error)
	// NewReader attaches an error-correcting reader to the drive.
	NewReader() (Reader, error)
	Close() error
}

// Reader pulls error-corrected frames of audio from a drive.
type Reader interface {
	// Seek positions the reader at the start of sector.
	Seek(sector int32) error
	// ReadFrame returns the next corrected frame of BytesPerSector bytes.
	// The returned slice is only valid until the next call. An error
	// means the frame could not be recovered.
	ReadFrame() ([]byte, error)
	Close() error
}
