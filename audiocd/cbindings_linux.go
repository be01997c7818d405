//go:build linux && cgo

package audiocd

// #cgo LDFLAGS: -lcdda_interface -lcdda_paranoia
// #include <stdint.h>
// #include <stdlib.h>
// #include <cdda_interface.h>
// #include <cdda_paranoia.h>
//
// /* Calling C function pointers from Go is not supported,
//    but this is a workaround. See https://pkg.go.dev/cmd/cgo */
// typedef int (*set_speed_fn) (struct cdrom_drive *d, int speed);
// int bridge_set_speed(set_speed_fn f, struct cdrom_drive *d, int speed) {
//   if (f == NULL) return -405;
//   return f(d, speed);
// }
import "C"

import (
	"io"
	"unsafe"

	"github.com/rabidaudio/cdrip"
)

func openDrive(device string) (unsafe.Pointer, string, error) {
	var p *C.char
	var drive *C.cdrom_drive
	if device == "" {
		drive = C.cdda_find_a_cdrom(C.CDDA_MESSAGE_LOGIT, &p)
	} else {
		str := C.CString(device)
		defer C.free(unsafe.Pointer(str))
		drive = C.cdda_identify(str, C.CDDA_MESSAGE_LOGIT, &p)
	}
	msg := takeString(p)

	if drive == nil {
		return nil, msg, ErrNoDrive
	}
	C.cdda_verbose_set(drive, C.CDDA_MESSAGE_LOGIT, C.CDDA_MESSAGE_LOGIT)

	if err := errorFromCode(int(C.cdda_open(drive))); err != nil {
		msgs, errs := drainLogs(unsafe.Pointer(drive))
		C.cdda_close(drive)
		return nil, joinLines(msg, msgs, errs), err
	}
	return unsafe.Pointer(drive), msg, nil
}

// takeString copies and frees a string allocated by the library.
func takeString(p *C.char) string {
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

func joinLines(parts ...string) (s string) {
	for _, p := range parts {
		if p == "" {
			continue
		}
		if s != "" {
			s += "\n"
		}
		s += p
	}
	return s
}

func model(d unsafe.Pointer) string {
	return C.GoString((*C.cdrom_drive)(d).drive_model)
}

func trackCount(d unsafe.Pointer) int {
	return int((*C.cdrom_drive)(d).tracks)
}

func firstTrack(d unsafe.Pointer) int {
	return int((*C.cdrom_drive)(d).disc_toc[0].bTrack)
}

// tocStartSector returns the start sector of the toc entry at index i.
// Index trackCount is the lead-out.
func tocStartSector(d unsafe.Pointer, i int) int32 {
	return int32((*C.cdrom_drive)(d).disc_toc[i].dwStartSector)
}

func trackIsAudio(d unsafe.Pointer, track int) (bool, error) {
	res := int(C.cdda_track_audiop((*C.cdrom_drive)(d), C.int(track)))
	if res < 0 {
		return false, errorFromCode(res)
	}
	return res == 1, nil
}

func trackFirstSector(d unsafe.Pointer, track int) int32 {
	return int32(C.cdda_track_firstsector((*C.cdrom_drive)(d), C.int(track)))
}

func trackLastSector(d unsafe.Pointer, track int) int32 {
	return int32(C.cdda_track_lastsector((*C.cdrom_drive)(d), C.int(track)))
}

func setSpeed(d unsafe.Pointer, x int) error {
	drive := (*C.cdrom_drive)(d)
	return errorFromCode(int(C.bridge_set_speed(drive.set_speed, drive, C.int(x))))
}

// drainLogs returns and clears the pending library messages and errors.
func drainLogs(d unsafe.Pointer) (msgs, errs string) {
	drive := (*C.cdrom_drive)(d)
	errs = takeString(C.cdda_errors(drive))
	msgs = takeString(C.cdda_messages(drive))
	return
}

func closeDrive(d unsafe.Pointer) {
	C.cdda_close((*C.cdrom_drive)(d))
}

func paranoiaInit(d unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.paranoia_init((*C.cdrom_drive)(d)))
}

func paranoiaModeSet(p unsafe.Pointer, flags ParanoiaFlags) {
	C.paranoia_modeset((*C.cdrom_paranoia)(p), C.int(flags))
}

func paranoiaSeek(p unsafe.Pointer, sector int32) int64 {
	return int64(C.paranoia_seek((*C.cdrom_paranoia)(p), C.long(sector), C.int(io.SeekStart)))
}

func paranoiaRead(p unsafe.Pointer, retries int) []byte {
	buf := unsafe.Pointer(C.paranoia_read_limited((*C.cdrom_paranoia)(p), nil, C.int(retries)))
	if buf == nil {
		return nil
	}
	// copy data out, since paranoia will reclaim the buffer
	return C.GoBytes(buf, C.int(cdrip.BytesPerSector))
}

func paranoiaFree(p unsafe.Pointer) {
	C.paranoia_free((*C.cdrom_paranoia)(p))
}

func version() string {
	return C.GoString(C.paranoia_version())
}
