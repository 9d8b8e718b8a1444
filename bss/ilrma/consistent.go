package ilrma

import (
	"fmt"

	"github.com/cwbudde/algo-bss/bss/projback"
)

// consistentModel is the Gaussian variant with per-iteration transform
// consistency: the estimate is round-tripped through the waveform domain
// before the updates, and a dedicated projection-back scale correction
// replaces the general normalizer.
type consistentModel struct{}

func (consistentModel) updateOnce(s *Separator) error {
	if err := s.enforceConsistency(); err != nil {
		return err
	}

	s.updateSourceModelGauss()
	s.updateSpatialGauss()
	s.recomputeEstimate()

	return s.rescaleProjectionBack()
}

func (consistentModel) negLogLikelihood(s *Separator) float64 {
	return s.gaussLoss()
}

// enforceConsistency replaces the estimate with its transform-consistent
// projection: inverse STFT followed by a forward STFT. Per-bin, per-frame
// independent estimation drifts out of the image of the forward transform;
// the round trip projects it back.
func (s *Separator) enforceConsistency() error {
	y, err := s.transform.Inverse(s.estimate, 0)
	if err != nil {
		return fmt.Errorf("ilrma: consistency projection: %w", err)
	}

	spec, err := s.transform.Forward(y)
	if err != nil {
		return fmt.Errorf("ilrma: consistency projection: %w", err)
	}
	if !spec.SameShape(s.estimate) {
		return fmt.Errorf("ilrma: consistency projection changed shape to (%d, %d, %d)",
			spec.Dim0, spec.Dim1, spec.Dim2)
	}

	s.estimate = spec
	return nil
}

// rescaleProjectionBack applies the per-iteration scale correction of the
// consistent variant: the projection-back scale is folded into the filter
// rows, the estimate is recomputed, and the base absorbs the squared
// magnitude so the spectral model tracks the rescaled estimate.
func (s *Separator) rescaleProjectionBack() error {
	scale, err := projback.Resolve(s.estimate, s.mixture, s.cfg.ReferenceChannel)
	if err != nil {
		return err
	}

	for f := range s.bins {
		for src := range s.sources {
			g := scale[src*s.bins+f]
			row := s.filter.Vec(f, src)
			for c := range row {
				row[c] *= g
			}
		}
	}
	s.recomputeEstimate()

	for src := range s.sources {
		base := s.nmf.base[src]
		_, bases := base.Dims()
		for f := range s.bins {
			g := scale[src*s.bins+f]
			mag2 := real(g)*real(g) + imag(g)*imag(g)
			for k := range bases {
				base.Set(f, k, base.At(f, k)*mag2)
			}
		}
	}

	return nil
}
