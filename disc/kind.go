package disc

// Kind classifies the disc in the drive by the formats of its tracks.
type Kind int

const (
	NoDisc Kind = iota
	AudioDisc
	DataDisc
	MixedModeDisc
)

func (k Kind) String() string {
	switch k {
	case AudioDisc:
		return "audio"
	case DataDisc:
		return "data"
	case MixedModeDisc:
		return "mixed-mode"
	default:
		return "none"
	}
}

// HasAudio reports whether discs of this kind carry audio tracks.
func (k Kind) HasAudio() bool {
	return k == AudioDisc || k == MixedModeDisc
}

// Classify returns the kind of a disc with the given number of audio
// and data tracks.
func Classify(audio, data int) Kind {
	switch {
	case audio > 0 && data == 0:
		return AudioDisc
	case data > 0 && audio == 0:
		return DataDisc
	case audio > 0 && data > 0:
		return MixedModeDisc
	default:
		return NoDisc
	}
}
