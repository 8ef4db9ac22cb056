package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"droog/internal/ports"
)

// StartingPacks is the one-time packs grant for new accounts. It covers a
// handful of match stakes so a fresh player can queue immediately.
const StartingPacks = 5_000_000

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// PacksGranted is false when the starting packs were already granted.
	PacksGranted bool
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	bonus    ports.WelcomeBonusPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/bonus must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, bonus ports.WelcomeBonusPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		bonus:    bonus,
		rng:      rng,
	}
}

// OnboardNewUser initializes profile and wallet for a newly created account.
// The packs grant is once-only; re-running onboarding for the same user is
// safe and reports PacksGranted=false.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.bonus == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	displayName := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		// Profile updates are best-effort; the packs grant is what matters.
		result.ProfileUpdateErr = err
	}

	granted, err := s.bonus.GrantWelcomeBonusOnce(ctx, userID, StartingPacks, map[string]interface{}{
		"reason": "starting_packs",
	})
	if err != nil {
		return result, fmt.Errorf("failed to grant starting packs: %w", err)
	}
	result.PacksGranted = granted

	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Smoky", "Lucky", "Shady", "Mellow", "Slick", "Dusty", "Loud", "Quiet", "Rusty", "Grim"}
	nouns := []string{"Corner", "Runner", "Plug", "Hustler", "Grower", "Dealer", "Courier", "Vendor", "Broker", "Peddler"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
