package domain

// Tuning carries the configurable rule-set values. Two coherent tables
// exist: the canonical fast 10-minute match and the legacy 30-minute match.
// A deployment must pick exactly one and keep it fixed for a match's whole
// lifetime, because growth and lock windows feed deterministic validation.
type Tuning struct {
	// MatchDuration is the full match window in seconds (EndAt - StartAt).
	MatchDuration int64
	// EndgameLock is the final window in which planting is disallowed.
	EndgameLock int64
	// GrowthTimes maps strain level 1..3 to growth seconds.
	GrowthTimes [3]int64
	// StakeAmount is the fixed per-player escrow commitment.
	StakeAmount int64
	// BurnPercent of the combined stake is destroyed at activation.
	BurnPercent int64
	// CancelTimeout is how long player A must wait before reclaiming an
	// unanswered stake.
	CancelTimeout int64
}

// GrowthTime returns the growth seconds for a strain level, 0 for unknown
// levels.
func (t Tuning) GrowthTime(strainLevel int) int64 {
	if strainLevel < 1 || strainLevel > 3 {
		return 0
	}
	return t.GrowthTimes[strainLevel-1]
}

// FastTuning is the canonical fast-paced rule set.
func FastTuning() Tuning {
	return Tuning{
		MatchDuration: 10 * 60,
		EndgameLock:   60,
		GrowthTimes:   [3]int64{10, 30, 60},
		StakeAmount:   1_000_000,
		BurnPercent:   10,
		CancelTimeout: 300,
	}
}

// LegacyTuning is the slower 30-minute rule set retained for compatibility.
func LegacyTuning() Tuning {
	return Tuning{
		MatchDuration: 30 * 60,
		EndgameLock:   5 * 60,
		GrowthTimes:   [3]int64{240, 420, 660},
		StakeAmount:   1_000_000,
		BurnPercent:   10,
		CancelTimeout: 300,
	}
}
