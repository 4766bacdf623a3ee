package extractors

import (
	"math"
	"math/rand"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// mono builds a single-channel unit from fn evaluated at each sample.
func mono(sampleRate int, seconds float64, fn func(i int, t float64) float64) domain.AudioUnit {
	n := int(seconds * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(fn(i, float64(i)/float64(sampleRate)))
	}
	buf := &domain.AudioBuffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
	return domain.NewAudioUnit("test", "test.wav", buf)
}

// stereo builds an interleaved two-channel unit.
func stereo(sampleRate int, seconds float64, left, right func(t float64) float64) domain.AudioUnit {
	n := int(seconds * float64(sampleRate))
	samples := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		samples[2*i] = float32(left(t))
		samples[2*i+1] = float32(right(t))
	}
	buf := &domain.AudioBuffer{Samples: samples, SampleRate: sampleRate, Channels: 2}
	return domain.NewAudioUnit("test", "test.wav", buf)
}

func sine(hz, amp float64) func(int, float64) float64 {
	return func(_ int, t float64) float64 {
		return amp * math.Sin(2*math.Pi*hz*t)
	}
}

// whiteNoise returns seeded uniform noise in [-amp, amp].
func whiteNoise(seed int64, amp float64) func(int, float64) float64 {
	r := rand.New(rand.NewSource(seed))
	return func(int, float64) float64 {
		return amp * (2*r.Float64() - 1)
	}
}

// clickTrack places a short decaying burst at each onset sample.
func clickTrack(sampleRate int, seconds float64, onsets []int) domain.AudioUnit {
	n := int(seconds * float64(sampleRate))
	x := make([]float64, n)
	burst := sampleRate / 100
	for _, o := range onsets {
		for j := 0; j < burst && o+j < n; j++ {
			t := float64(j) / float64(sampleRate)
			x[o+j] += 0.8 * math.Exp(-float64(j)/float64(burst)*5) * math.Sin(2*math.Pi*1500*t)
		}
	}
	return mono(sampleRate, seconds, func(i int, _ float64) float64 { return x[i] })
}
