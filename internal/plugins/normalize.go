package plugins

// NormalizeScore maps a raw metric value onto the 0-100 scale used
// everywhere downstream.
//
//   - accuracy-family metrics in 0-1 are multiplied by 100
//   - error rates (wer, cer, per; lower is better) become (1 - rate) * 100
//   - MOS (1-5) is rescaled linearly
//   - anything else passes through, assumed to already be 0-100
func NormalizeScore(rawValue float64, metricType string) float64 {
	switch metricType {
	case "accuracy", "acc", "acc_norm", "exact_match", "f1":
		if rawValue <= 1.0 {
			return rawValue * 100
		}
		return rawValue
	case "wer", "cer", "per":
		return (1.0 - rawValue) * 100
	case "mos", "mos_utmos", "mos_wvmos":
		return (rawValue - 1.0) / 4.0 * 100
	}
	return rawValue
}
