package audiocd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rabidaudio/cdrip"
)

func TestErrorNames(t *testing.T) {
	assert.Equal(t, "audiocd: no medium present", ErrNoMediumPresent.Error())
	assert.Equal(t, "audiocd: unknown error code: 12", AudioCDError(12).Error())
}

func TestErrorFromCode(t *testing.T) {
	assert.NoError(t, errorFromCode(0))
	assert.Equal(t, ErrNoMediumPresent, errorFromCode(-404))
	assert.Equal(t, ErrReadTOCLeadOut, errorFromCode(2))
}

func TestClassifyOpenError(t *testing.T) {
	err := classifyOpenError(ErrNoDrive)
	assert.ErrorIs(t, err, cdrip.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, ErrNoDrive)

	for _, code := range []AudioCDError{ErrNoMediumPresent, ErrReadTOCLeadOut, ErrReadTOCHeader, ErrIllegalTOC} {
		err = classifyOpenError(code)
		assert.ErrorIs(t, err, cdrip.ErrNoDiscPresent, "%v", code)
		assert.ErrorIs(t, err, code)
	}

	assert.ErrorIs(t, classifyOpenError(ErrNoAudioTracks), cdrip.ErrNotAnAudioDisc)
	assert.ErrorIs(t, classifyOpenError(ErrPermissionDenied), cdrip.ErrDeviceUnavailable)
}

func TestDriverDefaults(t *testing.T) {
	d := Driver{}
	assert.Equal(t, DefaultMaxRetries, d.retries())
	assert.Equal(t, ParanoiaModeFull, d.paranoiaMode())

	off := ParanoiaModeDisable
	d = Driver{MaxRetries: -1, Paranoia: &off}
	assert.Equal(t, 0, d.retries())
	assert.Equal(t, ParanoiaModeDisable, d.paranoiaMode())

	d = Driver{MaxRetries: 3}
	assert.Equal(t, 3, d.retries())
}

func TestClosedDrive(t *testing.T) {
	cdr := &CDRom{}
	_, err := cdr.FirstTrack()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = cdr.LeadOut()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = cdr.NewReader()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Equal(t, "", cdr.Model())
	assert.NoError(t, cdr.Close())

	r := &Paranoia{cdr: cdr}
	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NoError(t, r.Close())
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, cdrip.ErrReadError, ErrUnknownReadError.Kind())
	assert.Equal(t, cdrip.ErrInvalidTrackNumber, ErrInvalidTrackNumber.Kind())
	assert.Equal(t, cdrip.ErrDeviceUnavailable, AudioCDError(12).Kind())

	// a disc whose toc can't be read while opening counts as absent
	assert.ErrorIs(t, classifyOpenError(ErrNoData), cdrip.ErrNoDiscPresent)
	assert.ErrorIs(t, classifyOpenError(fmt.Errorf("open: %w", ErrNoAudioTracks)), cdrip.ErrNotAnAudioDisc)
}
