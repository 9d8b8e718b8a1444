// Package tensor provides a dense rank-3 container for multichannel
// time-frequency data.
//
// Elements live in a single contiguous slice in row-major order, so the
// innermost axis of a fixed (i, j) pair is a plain subslice.
// The packages in this module use the axis conventions (channel, bin, frame)
// for mixtures, (source, bin, frame) for estimates, and (bin, source,
// channel) for demixing filters.
package tensor
