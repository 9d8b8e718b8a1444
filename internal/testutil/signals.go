package testutil

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-bss/dsp/tensor"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DeterministicMixture generates a seeded complex (channel, bin, frame)
// tensor with components uniform in [-1, 1), standing in for a multichannel
// spectrogram in separation tests.
func DeterministicMixture(seed uint64, channels, bins, frames int) *tensor.Complex3 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := tensor.NewComplex3(channels, bins, frames)
	for i := range out.Data {
		out.Data[i] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}
