// Package stft provides forward and inverse short-time Fourier transforms
// for multichannel signals.
//
// The analysis uses a periodic Hann window without centering: frame m covers
// samples [m*hop, m*hop+block). The synthesis applies the same window and
// normalizes by the accumulated squared window, so a forward/inverse round
// trip reconstructs the interior of the signal for any hop satisfying the
// constant-overlap-add property (hop <= block/2 for Hann).
//
// Spectrograms are (channel, bin, frame) tensors holding the block/2+1
// non-negative-frequency bins.
package stft
