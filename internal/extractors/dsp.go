package extractors

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultFrameSize = 2048
	defaultHop       = 1024

	// maxFrames caps how many frames a spectrogram analyses. Frames are
	// sampled evenly across the signal beyond this.
	maxFrames = 600

	// silenceDB is the frame level below which a frame counts as silent.
	silenceDB = -50.0
)

// spectrogram holds magnitude spectra of evenly spaced frames.
type spectrogram struct {
	mags       [][]float64
	sampleRate int
	frameSize  int
	binHz      float64
}

// bin returns the FFT bin index nearest to hz.
func (s *spectrogram) bin(hz float64) int {
	b := int(math.Round(hz / s.binHz))
	if b < 0 {
		return 0
	}
	if n := s.frameSize/2 + 1; b >= n {
		return n - 1
	}
	return b
}

// meanSpectrum averages the frame magnitudes.
func (s *spectrogram) meanSpectrum() []float64 {
	if len(s.mags) == 0 {
		return nil
	}
	mean := make([]float64, len(s.mags[0]))
	for _, m := range s.mags {
		floats.Add(mean, m)
	}
	floats.Scale(1/float64(len(s.mags)), mean)
	return mean
}

// computeSpectrogram returns Hann-windowed magnitude spectra for up to limit
// frames of x. A limit of zero or less analyses every frame.
func computeSpectrogram(x []float64, sampleRate, frameSize, hop, limit int) *spectrogram {
	s := &spectrogram{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		binHz:      float64(sampleRate) / float64(frameSize),
	}
	if len(x) < frameSize || hop <= 0 {
		return s
	}

	total := (len(x)-frameSize)/hop + 1
	step := 1.0
	count := total
	if limit > 0 && total > limit {
		step = float64(total) / float64(limit)
		count = limit
	}

	fft := fourier.NewFFT(frameSize)
	buf := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)
	s.mags = make([][]float64, 0, count)

	for i := 0; i < count; i++ {
		start := int(float64(i)*step) * hop
		copy(buf, x[start:start+frameSize])
		window.Hann(buf)
		coeffs = fft.Coefficients(coeffs, buf)

		mag := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mag[k] = math.Hypot(real(c), imag(c))
		}
		s.mags = append(s.mags, mag)
	}
	return s
}

const (
	chromaMinHz = 55.0
	chromaMaxHz = 5000.0
)

// addChroma folds the energy of one magnitude frame onto twelve pitch
// classes and adds it to chroma.
func (s *spectrogram) addChroma(chroma, mag []float64) {
	lo, hi := s.bin(chromaMinHz), s.bin(chromaMaxHz)
	if lo < 1 {
		lo = 1
	}
	for k := lo; k <= hi && k < len(mag); k++ {
		pc := int(math.Round(hzToMIDI(float64(k)*s.binHz))) % 12
		if pc < 0 {
			pc += 12
		}
		chroma[pc] += mag[k] * mag[k]
	}
}

// spectralFlatness returns the ratio of the geometric to the arithmetic
// mean of the power spectrum, in [0, 1]. Noise is near 1, tones near 0.
func spectralFlatness(mag []float64) float64 {
	if len(mag) < 2 {
		return 0
	}
	var logSum, sum float64
	n := 0
	for _, m := range mag[1:] {
		p := m*m + 1e-20
		logSum += math.Log(p)
		sum += p
		n++
	}
	if n == 0 || sum <= 0 {
		return 0
	}
	return math.Exp(logSum/float64(n)) / (sum / float64(n))
}

// frameRMS returns the RMS level of consecutive frames.
func frameRMS(x []float64, frameSize, hop int) []float64 {
	if len(x) < frameSize || hop <= 0 {
		return nil
	}
	n := (len(x)-frameSize)/hop + 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		frame := x[i*hop : i*hop+frameSize]
		out[i] = math.Sqrt(floats.Dot(frame, frame) / float64(frameSize))
	}
	return out
}

// toDB converts a linear amplitude to decibels relative to full scale.
func toDB(v float64) float64 {
	if v <= 1e-10 {
		return -200
	}
	return 20 * math.Log10(v)
}

// energy returns the sum of squared magnitudes in bins [lo, hi).
func energy(mag []float64, lo, hi int) float64 {
	if hi > len(mag) {
		hi = len(mag)
	}
	var e float64
	for k := lo; k < hi; k++ {
		e += mag[k] * mag[k]
	}
	return e
}

// rolloff returns the frequency below which frac of the frame energy lies.
func rolloff(mag []float64, binHz, frac float64) float64 {
	total := energy(mag, 0, len(mag))
	if total == 0 {
		return 0
	}
	target := total * frac
	var cum float64
	for k, m := range mag {
		cum += m * m
		if cum >= target {
			return float64(k) * binHz
		}
	}
	return float64(len(mag)-1) * binHz
}

// hzToMIDI converts a frequency to a fractional MIDI note number.
func hzToMIDI(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440.0)
}

// shannonEntropy returns the entropy in bits of a non-negative distribution.
func shannonEntropy(weights []float64) float64 {
	total := floats.Sum(weights)
	if total <= 0 {
		return 0
	}
	var h float64
	for _, w := range weights {
		if w <= 0 {
			continue
		}
		p := w / total
		h -= p * math.Log2(p)
	}
	return h
}

// head returns at most the first seconds of x.
func head(x []float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	if n <= 0 || n >= len(x) {
		return x
	}
	return x[:n]
}

// parabolicPeak refines a local maximum at i using its neighbours and
// returns the fractional offset in (-0.5, 0.5).
func parabolicPeak(y []float64, i int) float64 {
	if i <= 0 || i >= len(y)-1 {
		return 0
	}
	a, b, c := y[i-1], y[i], y[i+1]
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	off := 0.5 * (a - c) / den
	if off > 0.5 || off < -0.5 {
		return 0
	}
	return off
}
