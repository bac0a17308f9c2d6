package cfg

import "dgastack/internal/features"

// Overlong-domain modes accepted in configuration.
const (
	OverlongTruncate = "truncate"
	OverlongReject   = "reject"
)

// Configuration defaults.
const (
	DefaultHoldoutRatio = 0.2
	DefaultSeed         = int64(42)
	DefaultMetricsPort  = 8080
)

// TruncatePolicy maps the configured overlong mode to the encoder policy.
func (s *Settings) TruncatePolicy() features.TruncatePolicy {
	if s.OverlongMode == OverlongReject {
		return features.Reject
	}
	return features.Truncate
}

// CanTrain reports whether both labeled corpora are configured.
func (s *Settings) CanTrain() bool {
	return s.BenignPath != "" && s.DGAPath != ""
}
