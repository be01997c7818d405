//go:build !linux || !cgo

package cddb

import (
	"errors"
)

var errNoLibCDDB = errors.New("cddb: built without libcddb support")

func (l *LibCDDB) NewDisc(lengthSeconds int) (Disc, error) {
	return newDescriptor(lengthSeconds), nil
}

func (l *LibCDDB) Connect() (Conn, error) {
	return nil, errNoLibCDDB
}

func (l *LibCDDB) Shutdown() {}
