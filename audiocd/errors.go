package audiocd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rabidaudio/cdrip"
)

// ErrNoDrive is returned when no valid cd drive was found.
var ErrNoDrive = fs.ErrNotExist

// AudioCDError is an error code reported by libcdparanoia.
type AudioCDError int

const (
	ErrSetReadAudioMode      AudioCDError = 1
	ErrReadTOCLeadOut        AudioCDError = 2
	ErrIllegalNumberOfTracks AudioCDError = 3
	ErrReadTOCHeader         AudioCDError = 4
	ErrReadTOCEntry          AudioCDError = 5
	ErrNoData                AudioCDError = 6
	ErrUnknownReadError      AudioCDError = 7
	ErrUnableToIdentifyModel AudioCDError = 8
	ErrIllegalTOC            AudioCDError = 9
	ErrInterfaceNotSupported AudioCDError = 100
	ErrPermissionDenied      AudioCDError = 102
	ErrKernelMemory          AudioCDError = 300
	ErrNotOpen               AudioCDError = 400
	ErrInvalidTrackNumber    AudioCDError = 401
	ErrNoAudioTracks         AudioCDError = 403
	ErrNoMediumPresent       AudioCDError = 404
	ErrOperationNotSupported AudioCDError = 405
)

type codeInfo struct {
	msg string
	// kind the code maps to while opening a drive
	kind cdrip.Error
}

var codes = map[AudioCDError]codeInfo{
	ErrSetReadAudioMode:      {"unable to set CDROM to read audio mode", cdrip.ErrDeviceUnavailable},
	ErrReadTOCLeadOut:        {"unable to read table of contents lead-out", cdrip.ErrNoDiscPresent},
	ErrIllegalNumberOfTracks: {"cdrom reporting illegal number of tracks", cdrip.ErrNoDiscPresent},
	ErrReadTOCHeader:         {"unable to read table of contents header", cdrip.ErrNoDiscPresent},
	ErrReadTOCEntry:          {"unable to read table of contents entry", cdrip.ErrNoDiscPresent},
	ErrNoData:                {"could not read any data from drive", cdrip.ErrReadError},
	ErrUnknownReadError:      {"unknown, unrecoverable error reading data", cdrip.ErrReadError},
	ErrUnableToIdentifyModel: {"unable to identify CDROM model", cdrip.ErrDeviceUnavailable},
	ErrIllegalTOC:            {"cdrom reporting illegal table of contents", cdrip.ErrNoDiscPresent},
	ErrInterfaceNotSupported: {"interface not supported", cdrip.ErrDeviceUnavailable},
	ErrPermissionDenied:      {"permision denied on cdrom (ioctl) device", cdrip.ErrDeviceUnavailable},
	ErrKernelMemory:          {"kernel memory error", cdrip.ErrDeviceUnavailable},
	ErrNotOpen:               {"device not open", cdrip.ErrDeviceUnavailable},
	ErrInvalidTrackNumber:    {"invalid track number", cdrip.ErrInvalidTrackNumber},
	ErrNoAudioTracks:         {"no audio tracks on disc", cdrip.ErrNotAnAudioDisc},
	ErrNoMediumPresent:       {"no medium present", cdrip.ErrNoDiscPresent},
	ErrOperationNotSupported: {"option not supported by drive", cdrip.ErrDeviceUnavailable},
}

func (pe AudioCDError) Error() string {
	if info, ok := codes[pe]; ok {
		return "audiocd: " + info.msg
	}
	return fmt.Sprintf("audiocd: unknown error code: %v", int(pe))
}

// Kind returns the cdrip error kind of the code. Unknown codes mean the
// device itself misbehaved.
func (pe AudioCDError) Kind() cdrip.Error {
	if info, ok := codes[pe]; ok {
		return info.kind
	}
	return cdrip.ErrDeviceUnavailable
}

func errorFromCode(retval int) error {
	if retval == 0 {
		return nil
	}
	if retval < 0 {
		retval = -retval
	}
	return AudioCDError(retval)
}

// classifyOpenError wraps a failure to open the drive in its cdrip kind.
// Read failures while opening mean the table of contents is unreadable.
func classifyOpenError(err error) error {
	var code AudioCDError
	if !errors.As(err, &code) {
		return cdrip.Wrap(cdrip.ErrDeviceUnavailable, err)
	}
	kind := code.Kind()
	if kind == cdrip.ErrReadError || kind == cdrip.ErrInvalidTrackNumber {
		kind = cdrip.ErrNoDiscPresent
	}
	return cdrip.Wrap(kind, err)
}
