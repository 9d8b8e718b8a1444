package ilrma

// gaussModel is the time-variant Gaussian variant: NMF source update,
// guarded iterative-projection spatial update, then the configured
// normalization.
type gaussModel struct{}

func (gaussModel) updateOnce(s *Separator) error {
	s.updateSourceModelGauss()
	s.updateSpatialGauss()
	s.recomputeEstimate()
	return s.normalize()
}

func (gaussModel) negLogLikelihood(s *Separator) float64 {
	return s.gaussLoss()
}
