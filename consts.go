package cdrip

// SampleRate is the number of samples per second. All Redbook audio
// CDs use 44.1KHz.
const SampleRate = 44100

// BytesPerSample is 2 bytes, representing signed 16-bit samples.
const BytesPerSample = 2

// BitsPerSample is the sample precision of CD-DA audio.
const BitsPerSample = BytesPerSample * 8

// Channels is the number of audio channels in the data. All Redbook audio
// CDs are stereo.
const Channels = 2

// FramesPerSecond is the number of frames (sectors) in one second of audio.
// Redbook track offsets are specified in MM:SS:FF.
//
// Note that this definition of frame is interchangable with sector.
// It is distinct from a 33-byte channel data frame.
const FramesPerSecond = 75

// BytesPerSector is the number of bytes of audio contained in one sector of
// CD data (and equivalently in one frame of samples), 2352 bytes.
const BytesPerSector = SampleRate * Channels * BytesPerSample / FramesPerSecond

// PregapFrames is the two second lead-in which absolute frame offsets
// (as used for disc IDs) include and sector numbers do not.
const PregapFrames = 2 * FramesPerSecond

// MaxTracks is the most tracks the CD-DA format allows.
const MaxTracks = 99
