package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"droog/internal/domain"
)

// GameConfig is the deploy-time rule configuration. The rule set selects one
// of the two coherent tuning tables; the optional overrides adjust the
// economy knobs without touching the growth timings.
type GameConfig struct {
	// RuleSet is "fast" (default) or "legacy".
	RuleSet string `json:"rule_set"`

	// StakeAmount overrides the per-player escrow commitment when > 0.
	StakeAmount int64 `json:"stake_amount"`
	// BurnPercent overrides the activation burn percentage when > 0.
	BurnPercent int64 `json:"burn_percent"`
	// CancelTimeoutSeconds overrides the unanswered-stake timeout when > 0.
	CancelTimeoutSeconds int64 `json:"cancel_timeout_seconds"`

	// AttestSecret signs match result tokens. Empty disables the result
	// token RPC.
	AttestSecret string `json:"attest_secret"`
	// AttestIssuer is the "iss" claim of result tokens.
	AttestIssuer string `json:"attest_issuer"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// Tuning resolves the effective rule-set values: the table picked by
// RuleSet, with any per-field overrides applied. A nil or unloaded config
// yields the fast table untouched.
func Tuning() domain.Tuning {
	t := domain.FastTuning()
	if cfg == nil {
		return t
	}
	if cfg.RuleSet == "legacy" {
		t = domain.LegacyTuning()
	}
	if cfg.StakeAmount > 0 {
		t.StakeAmount = cfg.StakeAmount
	}
	if cfg.BurnPercent > 0 {
		t.BurnPercent = cfg.BurnPercent
	}
	if cfg.CancelTimeoutSeconds > 0 {
		t.CancelTimeout = cfg.CancelTimeoutSeconds
	}
	return t
}
