package domain

// DetectionThresholds contains configurable tunables for the rule-based
// detectors. A snapshot is passed by value into every run; detectors never
// mutate it.
type DetectionThresholds struct {
	// SimilarityThreshold is the minimum description similarity (0..1) for two
	// charges to count as duplicates (default: 0.85).
	SimilarityThreshold float64
	// DuplicateWindowDays is the sliding window within which duplicate charges
	// are searched (default: 7).
	DuplicateWindowDays int
	// AmountTolerance is the maximum relative amount difference (0..1) between
	// duplicate charges (default: 0.01).
	AmountTolerance float64
	// OrphanWindowDays is how far around a fee to look for a matching service
	// transaction before calling it a ghost fee (default: 5).
	OrphanWindowDays int
	// EntropyThreshold is the Shannon entropy (bits/char) above which a fee
	// description is considered non-standard wording (default: 4.2).
	EntropyThreshold float64
	// MinConfidence is the minimum confidence for emitting an anomaly
	// (default: 0.6).
	MinConfidence float64
	// OverchargeTolerance is the relative overshoot (0..1) allowed before a
	// charge above the contractual amount is flagged (default: 0.05).
	OverchargeTolerance float64
	// UseHistoricalBaseline substitutes the client's historical median for a
	// fee code when the resolved grid has no entry for it (default: true).
	UseHistoricalBaseline bool
	// AMLCashThreshold is the FCFA cash-movement declaration threshold
	// (default: 5,000,000 per CEMAC/UEMOA LCB-FT rules).
	AMLCashThreshold float64
	// AMLStructuringWindowDays is the window in which several just-under-
	// threshold cash movements are treated as structuring (default: 7).
	AMLStructuringWindowDays int
	// ValueDateMaxLagDays is the maximum regulatory lag between operation date
	// and value date (default: 2 business days, kept as calendar 3).
	ValueDateMaxLagDays int
	// LargeMovementMultiplier flags movements larger than this multiple of the
	// account's median absolute movement (default: 10).
	LargeMovementMultiplier float64
}

// DefaultThresholds returns the default detector configuration.
func DefaultThresholds() DetectionThresholds {
	return DetectionThresholds{
		SimilarityThreshold:      0.85,
		DuplicateWindowDays:      7,
		AmountTolerance:          0.01,
		OrphanWindowDays:         5,
		EntropyThreshold:         4.2,
		MinConfidence:            0.6,
		OverchargeTolerance:      0.05,
		UseHistoricalBaseline:    true,
		AMLCashThreshold:         5_000_000,
		AMLStructuringWindowDays: 7,
		ValueDateMaxLagDays:      3,
		LargeMovementMultiplier:  10,
	}
}
