//go:build linux && cgo

package cddb

/*
#cgo LDFLAGS: -lcddb
#include <stdlib.h>
#include <cddb/cddb.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// libcddb keeps global state, every call goes through libMu.
var libMu sync.Mutex

type libDisc struct {
	d *C.cddb_disc_t
}

type libConn struct {
	c *C.cddb_conn_t
}

func (l *LibCDDB) NewDisc(lengthSeconds int) (Disc, error) {
	libMu.Lock()
	defer libMu.Unlock()

	d := C.cddb_disc_new()
	if d == nil {
		return nil, errors.New("cddb: cddb_disc_new failed")
	}
	C.cddb_disc_set_length(d, C.uint(lengthSeconds))
	return &libDisc{d: d}, nil
}

func (d *libDisc) AddTrack(frameOffset int32) error {
	libMu.Lock()
	defer libMu.Unlock()
	if d.d == nil {
		return errDiscClosed
	}

	t := C.cddb_track_new()
	if t == nil {
		return errors.New("cddb: cddb_track_new failed")
	}
	C.cddb_disc_add_track(d.d, t)
	C.cddb_track_set_frame_offset(t, C.int(frameOffset))
	return nil
}

func (d *libDisc) CalcDiscID() (uint32, error) {
	libMu.Lock()
	defer libMu.Unlock()
	if d.d == nil {
		return 0, errDiscClosed
	}

	if C.cddb_disc_calc_discid(d.d) == 0 {
		return 0, errors.New("cddb: cddb_disc_calc_discid failed")
	}
	return uint32(C.cddb_disc_get_discid(d.d)), nil
}

func (d *libDisc) Close() error {
	libMu.Lock()
	defer libMu.Unlock()
	if d.d != nil {
		C.cddb_disc_destroy(d.d)
		d.d = nil
	}
	return nil
}

func (l *LibCDDB) Connect() (Conn, error) {
	libMu.Lock()
	defer libMu.Unlock()

	c := C.cddb_new()
	if c == nil {
		return nil, errors.New("cddb: cddb_new failed")
	}

	server := C.CString(l.server())
	defer C.free(unsafe.Pointer(server))
	C.cddb_set_server_name(c, server)
	C.cddb_set_server_port(c, C.int(l.port()))
	C.cddb_set_timeout(c, C.uint(l.timeoutSeconds()))

	if l.HTTP {
		path := C.CString(l.path())
		defer C.free(unsafe.Pointer(path))
		C.cddb_set_http_path_query(c, path)
		C.cddb_http_enable(c)
	}
	if l.Email != "" {
		email := C.CString(l.Email)
		defer C.free(unsafe.Pointer(email))
		C.cddb_set_email_address(c, email)
	}
	name, version := C.CString(clientName), C.CString(clientVersion)
	defer C.free(unsafe.Pointer(name))
	defer C.free(unsafe.Pointer(version))
	C.cddb_set_client(c, name, version)
	if l.DisableCache {
		C.cddb_cache_disable(c)
	}
	return &libConn{c: c}, nil
}

func (l *LibCDDB) Shutdown() {
	libMu.Lock()
	defer libMu.Unlock()
	C.libcddb_shutdown()
}

func (c *libConn) lastError() error {
	return errors.New("cddb: " + C.GoString(C.cddb_error_str(C.cddb_errno(c.c))))
}

func discOf(d Disc) (*C.cddb_disc_t, error) {
	ld, ok := d.(*libDisc)
	if !ok {
		return nil, fmt.Errorf("cddb: foreign disc descriptor %T", d)
	}
	if ld.d == nil {
		return nil, errDiscClosed
	}
	return ld.d, nil
}

func (c *libConn) Query(d Disc) (int, error) {
	libMu.Lock()
	defer libMu.Unlock()
	if c.c == nil {
		return -1, errors.New("cddb: connection closed")
	}
	disc, err := discOf(d)
	if err != nil {
		return -1, err
	}

	n := int(C.cddb_query(c.c, disc))
	if n < 0 {
		return -1, c.lastError()
	}
	return n, nil
}

func goString(s *C.char) (string, bool) {
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}

func (c *libConn) Read(d Disc) (*Record, error) {
	libMu.Lock()
	defer libMu.Unlock()
	if c.c == nil {
		return nil, errors.New("cddb: connection closed")
	}
	disc, err := discOf(d)
	if err != nil {
		return nil, err
	}

	if C.cddb_read(c.c, disc) == 0 {
		return nil, c.lastError()
	}

	rec := NewRecord(int(C.cddb_disc_get_track_count(disc)))
	if s, ok := goString(C.cddb_disc_get_category_str(disc)); ok {
		rec.SetCategory(s)
	}
	if s, ok := goString(C.cddb_disc_get_artist(disc)); ok {
		rec.SetArtist(s)
	}
	if s, ok := goString(C.cddb_disc_get_title(disc)); ok {
		rec.SetTitle(s)
	}
	if s, ok := goString(C.cddb_disc_get_genre(disc)); ok {
		rec.SetGenre(s)
	}
	if s, ok := goString(C.cddb_disc_get_ext_data(disc)); ok {
		rec.SetExtData(s)
	}
	rec.SetYear(int(C.cddb_disc_get_year(disc)))

	t := C.cddb_disc_get_track_first(disc)
	for n := 1; t != nil && n <= rec.NumTracks(); n++ {
		if s, ok := goString(C.cddb_track_get_title(t)); ok {
			_ = rec.SetTrackTitle(n, s)
		}
		if s, ok := goString(C.cddb_track_get_artist(t)); ok {
			_ = rec.SetTrackArtist(n, s)
		}
		_ = rec.SetTrackLength(n, int(C.cddb_track_get_length(t)))
		t = C.cddb_disc_get_track_next(disc)
	}
	return rec, nil
}

func (c *libConn) Next(d Disc) bool {
	libMu.Lock()
	defer libMu.Unlock()
	if c.c == nil {
		return false
	}
	disc, err := discOf(d)
	if err != nil {
		return false
	}
	return C.cddb_query_next(c.c, disc) != 0
}

func (c *libConn) Close() error {
	libMu.Lock()
	defer libMu.Unlock()
	if c.c != nil {
		C.cddb_destroy(c.c)
		c.c = nil
	}
	return nil
}
