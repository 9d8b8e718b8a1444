package ilrma

// tModel is the complex Student's-t variant.
//
// The heavy-tailed multiplicative source-model update is intentionally not
// implemented; the spectral model keeps its seeded random initialization and
// every iteration runs only the spatial update, which is a valid
// majorize-minimize step for the fixed model and keeps the loss
// non-increasing. Power normalization always applies.
type tModel struct{}

func (tModel) updateOnce(s *Separator) error {
	if err := s.updateSpatialT(); err != nil {
		return err
	}
	s.recomputeEstimate()
	s.normalizePower()
	return nil
}

func (tModel) negLogLikelihood(s *Separator) float64 {
	return s.tLoss()
}
