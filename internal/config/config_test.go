package config

import "testing"

func TestTuningDefaultsToFast(t *testing.T) {
	cfg = nil
	tuning := Tuning()
	if tuning.MatchDuration != 600 {
		t.Fatalf("match duration = %d, want 600", tuning.MatchDuration)
	}
	if tuning.GrowthTimes != [3]int64{10, 30, 60} {
		t.Fatalf("growth times = %v, want fast table", tuning.GrowthTimes)
	}
}

func TestTuningLegacyWithOverrides(t *testing.T) {
	cfg = &GameConfig{
		RuleSet:              "legacy",
		StakeAmount:          500_000,
		CancelTimeoutSeconds: 120,
	}
	defer func() { cfg = nil }()

	tuning := Tuning()
	if tuning.MatchDuration != 1800 {
		t.Fatalf("match duration = %d, want 1800", tuning.MatchDuration)
	}
	if tuning.GrowthTimes != [3]int64{240, 420, 660} {
		t.Fatalf("growth times = %v, want legacy table", tuning.GrowthTimes)
	}
	if tuning.StakeAmount != 500_000 {
		t.Fatalf("stake = %d, want override 500000", tuning.StakeAmount)
	}
	if tuning.CancelTimeout != 120 {
		t.Fatalf("cancel timeout = %d, want override 120", tuning.CancelTimeout)
	}
	if tuning.BurnPercent != 10 {
		t.Fatalf("burn percent = %d, want table default 10", tuning.BurnPercent)
	}
}
