package domain

import "time"

// Stem identifies an isolated component of a mix.
type Stem string

// Available stems.
const (
	StemFullMix Stem = "full_mix"
	StemVocals  Stem = "vocals"
	StemDrums   Stem = "drums"
	StemBass    Stem = "bass"
	StemOther   Stem = "other"
)

// IsValid returns true if the stem is recognised.
func (s Stem) IsValid() bool {
	switch s {
	case StemFullMix, StemVocals, StemDrums, StemBass, StemOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Stem) String() string {
	return string(s)
}

// AudioBuffer holds interleaved float32 samples normalised to [-1, 1].
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b *AudioBuffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *AudioBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Channel returns a copy of a single channel as float64.
// An out of range index returns nil.
func (b *AudioBuffer) Channel(i int) []float64 {
	if b == nil || i < 0 || i >= b.Channels {
		return nil
	}
	frames := b.Frames()
	out := make([]float64, frames)
	for f := 0; f < frames; f++ {
		out[f] = float64(b.Samples[f*b.Channels+i])
	}
	return out
}

// Mono returns the channel average as float64.
func (b *AudioBuffer) Mono() []float64 {
	if b == nil || b.Channels <= 0 {
		return nil
	}
	frames := b.Frames()
	out := make([]float64, frames)
	scale := 1 / float64(b.Channels)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < b.Channels; c++ {
			sum += float64(b.Samples[f*b.Channels+c])
		}
		out[f] = sum * scale
	}
	return out
}

// Metadata holds descriptive tags for a recording.
type Metadata struct {
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
}

// AudioUnit is one analysable recording.
// The buffer is owned by the ingestion collaborator and borrowed read-only.
type AudioUnit struct {
	ID         string
	SourcePath string
	Buffer     *AudioBuffer
	Duration   time.Duration
	SampleRate int
	Channels   int
	GroupID    string
	Stem       Stem
	Metadata   Metadata
}

// NewAudioUnit creates an AudioUnit describing the given buffer.
func NewAudioUnit(id, sourcePath string, buf *AudioBuffer) AudioUnit {
	u := AudioUnit{
		ID:         id,
		SourcePath: sourcePath,
		Buffer:     buf,
		Stem:       StemFullMix,
	}
	if buf != nil {
		u.Duration = buf.Duration()
		u.SampleRate = buf.SampleRate
		u.Channels = buf.Channels
	}
	return u
}

// WithGroup returns a copy of the unit linked to the given group.
func (u AudioUnit) WithGroup(groupID string) AudioUnit {
	u.GroupID = groupID
	return u
}

// WithMetadata returns a copy of the unit carrying the given metadata.
func (u AudioUnit) WithMetadata(md Metadata) AudioUnit {
	u.Metadata = md
	return u
}

// WithStem returns a copy of the unit backed by a separated stem buffer.
func (u AudioUnit) WithStem(stem Stem, buf *AudioBuffer) AudioUnit {
	v := NewAudioUnit(u.ID, u.SourcePath, buf)
	v.GroupID = u.GroupID
	v.Metadata = u.Metadata
	v.Stem = stem
	return v
}
