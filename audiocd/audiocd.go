// Package audiocd gives access to the cd drive and reads PCM audio data
// from a CD-DA disc through [CDParanoia], implementing the device
// interfaces of package disc.
//
// It's a cgo wrapper, which means it only runs on Linux and requires
// libcdparanoia and headers to be installed, for example:
//
//	sudo apt install cdparanoia libcdparanoia-dev
//
// On other platforms (or with cgo disabled) a mock drive holding ten
// three minute tracks of white noise is used instead.
//
// [CDParanoia]: https://xiph.org/paranoia/index.html
package audiocd

import (
	"strings"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
)

// ParanoiaFlags enable specific error checking features.
type ParanoiaFlags int

const (
	ParanoiaModeDisable ParanoiaFlags = 0    // disable all error checking features
	ParanoiaModeFull    ParanoiaFlags = 0xff // enable all error checking features

	ParanoiaVerify    ParanoiaFlags = 1
	ParanoiaFragment  ParanoiaFlags = 2
	ParanoiaOverlap   ParanoiaFlags = 4
	ParanoiaScratch   ParanoiaFlags = 8
	ParanoiaRepair    ParanoiaFlags = 16
	ParanoiaNeverSkip ParanoiaFlags = 32
)

// FullSpeed runs the drive at its fastest speed.
const FullSpeed = -1

// DefaultMaxRetries is the number of repeated reads on failed sectors
// used when Driver.MaxRetries is 0.
const DefaultMaxRetries = 20

// Driver opens a cd drive. If Device is specified, the drive at that
// block device is used. Otherwise the first detected drive is used.
// The zero value for Driver is ready to use.
//
// Library messages from libcdparanoia are sent to Logger at debug level
// and its errors at warn level. If Logger is nil, they are discarded.
type Driver struct {
	Device     string          // the path to the cdrom device, e.g. /dev/cdrom
	MaxRetries int             // repeated reads on failed sectors. -1 disables retries, 0 uses DefaultMaxRetries
	Paranoia   *ParanoiaFlags  // error correction mode. nil means ParanoiaModeFull
	Speed      int             // read speed multiplier. 0 means FullSpeed
	Logger     *zerolog.Logger // destination of library messages
}

// ensure interface conformation
var _ disc.Driver = (*Driver)(nil)

// Open finds the drive and reads the disc's table of contents.
//
// It fails with [cdrip.ErrDeviceUnavailable] if no drive could be found,
// or [cdrip.ErrNoDiscPresent] if the drive has no readable disc. The
// underlying [AudioCDError] is wrapped as well.
//
// Open does not refer to controlling the drive tray.
func (d *Driver) Open() (disc.Drive, error) {
	log := d.logger()

	h, msg, err := openDrive(d.Device)
	logLines(log, zerolog.DebugLevel, msg)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	cdr := &CDRom{handle: h, log: log, retries: d.retries(), paranoia: d.paranoiaMode()}
	speed := d.Speed
	if speed == 0 {
		speed = FullSpeed
	}
	if err := setSpeed(h, speed); err != nil {
		// not all drives support this, which is fine
		log.Debug().Err(err).Int("speed", speed).Msg("audiocd: unable to set drive speed")
	}
	cdr.flushLogs()
	log.Debug().Str("model", cdr.Model()).Str("device", d.Device).Msg("audiocd: drive opened")
	return cdr, nil
}

func (d *Driver) logger() zerolog.Logger {
	if d.Logger == nil {
		return zerolog.Nop()
	}
	return *d.Logger
}

func (d *Driver) retries() int {
	switch {
	case d.MaxRetries < 0:
		return 0 // disable
	case d.MaxRetries == 0:
		return DefaultMaxRetries
	default:
		return d.MaxRetries
	}
}

func (d *Driver) paranoiaMode() ParanoiaFlags {
	if d.Paranoia == nil {
		return ParanoiaModeFull
	}
	return *d.Paranoia
}

// CDRom is an opened drive. It implements [disc.Drive].
type CDRom struct {
	handle   unsafe.Pointer // *C.cdrom_drive
	log      zerolog.Logger
	retries  int
	paranoia ParanoiaFlags
}

var _ disc.Drive = (*CDRom)(nil)

// Model returns information about the cd drive's manufacturer and model number.
func (cdr *CDRom) Model() string {
	if cdr.handle == nil {
		return ""
	}
	return model(cdr.handle)
}

func (cdr *CDRom) FirstTrack() (int, error) {
	if cdr.handle == nil {
		return 0, ErrNotOpen
	}
	if trackCount(cdr.handle) < 1 {
		return 0, ErrNoMediumPresent
	}
	return firstTrack(cdr.handle), nil
}

// TrackCount returns number of tracks on the disc.
// The CD-DA format supports a maximum of 99 tracks.
func (cdr *CDRom) TrackCount() (int, error) {
	if cdr.handle == nil {
		return 0, ErrNotOpen
	}
	n := trackCount(cdr.handle)
	if n < 0 || n > cdrip.MaxTracks {
		return 0, ErrIllegalNumberOfTracks
	}
	return n, nil
}

func (cdr *CDRom) checkTrack(track int) error {
	if cdr.handle == nil {
		return ErrNotOpen
	}
	if track < 1 || track > trackCount(cdr.handle) {
		return ErrInvalidTrackNumber
	}
	return nil
}

func (cdr *CDRom) TrackFormat(track int) (disc.TrackFormat, error) {
	if err := cdr.checkTrack(track); err != nil {
		return disc.FormatData, err
	}
	defer cdr.flushLogs()
	audio, err := trackIsAudio(cdr.handle, track)
	if err != nil {
		return disc.FormatData, err
	}
	if audio {
		return disc.FormatAudio, nil
	}
	return disc.FormatData, nil
}

func (cdr *CDRom) TrackOffset(track int) (int32, error) {
	if err := cdr.checkTrack(track); err != nil {
		return -1, err
	}
	start := tocStartSector(cdr.handle, track-1)
	if start < 0 {
		return -1, ErrReadTOCEntry
	}
	return start + cdrip.PregapFrames, nil
}

func (cdr *CDRom) TrackSectors(track int) (first, last int32, err error) {
	if err := cdr.checkTrack(track); err != nil {
		return -1, -1, err
	}
	defer cdr.flushLogs()
	first = trackFirstSector(cdr.handle, track)
	if first < 0 {
		return -1, -1, AudioCDError(-first)
	}
	last = trackLastSector(cdr.handle, track)
	if last < 0 {
		return -1, -1, AudioCDError(-last)
	}
	return first, last, nil
}

// LeadOut returns the absolute frame offset of the lead-out, the
// sector after the last track.
func (cdr *CDRom) LeadOut() (int32, error) {
	if cdr.handle == nil {
		return -1, ErrNotOpen
	}
	start := tocStartSector(cdr.handle, trackCount(cdr.handle))
	if start < 0 {
		return -1, ErrReadTOCLeadOut
	}
	return start + cdrip.PregapFrames, nil
}

// NewReader attaches a paranoia reader to the drive, seeked to the
// start of the disc.
func (cdr *CDRom) NewReader() (disc.Reader, error) {
	if cdr.handle == nil {
		return nil, ErrNotOpen
	}
	defer cdr.flushLogs()
	p := paranoiaInit(cdr.handle)
	if p == nil {
		return nil, ErrKernelMemory
	}
	paranoiaModeSet(p, cdr.paranoia)
	r := &Paranoia{p: p, cdr: cdr}
	if err := r.Seek(0); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Close releases access to the cd drive.
//
// Close this does not refer to controlling the drive tray.
func (cdr *CDRom) Close() error {
	if cdr.handle == nil {
		return nil
	}
	cdr.flushLogs()
	closeDrive(cdr.handle)
	cdr.handle = nil
	return nil
}

func (cdr *CDRom) flushLogs() {
	if cdr.handle == nil {
		return
	}
	msgs, errs := drainLogs(cdr.handle)
	logLines(cdr.log, zerolog.DebugLevel, msgs)
	logLines(cdr.log, zerolog.WarnLevel, errs)
}

// Paranoia reads corrected audio frames. It implements [disc.Reader].
type Paranoia struct {
	p   unsafe.Pointer // *C.cdrom_paranoia
	cdr *CDRom
}

var _ disc.Reader = (*Paranoia)(nil)

func (r *Paranoia) Seek(sector int32) error {
	if r.p == nil || r.cdr.handle == nil {
		return ErrNotOpen
	}
	defer r.cdr.flushLogs()
	res := paranoiaSeek(r.p, sector)
	if res < 0 {
		return AudioCDError(-res)
	}
	return nil
}

// ReadFrame reads one sector of PCM audio data. Samples are signed
// 16-bit, in host byte order regardless of drive endianness.
func (r *Paranoia) ReadFrame() ([]byte, error) {
	if r.p == nil || r.cdr.handle == nil {
		return nil, ErrNotOpen
	}
	defer r.cdr.flushLogs()
	buf := paranoiaRead(r.p, r.cdr.retries)
	if buf == nil {
		return nil, ErrUnknownReadError
	}
	return buf, nil
}

func (r *Paranoia) Close() error {
	if r.p != nil {
		paranoiaFree(r.p)
	}
	r.p = nil
	return nil
}

// Version returns the libcdparanoia version string.
func Version() string {
	return version()
}

func logLines(log zerolog.Logger, level zerolog.Level, s string) {
	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line != "" {
			log.WithLevel(level).Str("lib", "cdparanoia").Msg(line)
		}
	}
}
