package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// TestDailyClaimEligibilityProperty checks that a claim is available exactly
// when the cooldown since the last claim has fully elapsed.
func TestDailyClaimEligibilityProperty(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	rapid.Check(t, func(t *rapid.T) {
		cooldownHours := rapid.IntRange(1, 48).Draw(t, "cooldownHours")
		secondsAgo := rapid.Int64Range(0, 72*3600).Draw(t, "secondsAgo")
		cooldown := time.Duration(cooldownHours) * time.Hour

		user := &model.User{LastDailyClaim: now.Unix() - secondsAgo}
		remaining := repository.NextDailyClaim(user, cooldown, now)

		elapsed := time.Duration(secondsAgo) * time.Second
		if elapsed >= cooldown {
			if remaining != 0 {
				t.Fatalf("claim %v ago with %v cooldown should be available, remaining %v", elapsed, cooldown, remaining)
			}
			return
		}
		if remaining != cooldown-elapsed {
			t.Fatalf("remaining = %v, want %v", remaining, cooldown-elapsed)
		}
	})
}

// TestDailyClaimNeverClaimedProperty checks that a user who never claimed can always claim.
func TestDailyClaimNeverClaimedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cooldownHours := rapid.IntRange(1, 168).Draw(t, "cooldownHours")
		remaining := repository.NextDailyClaim(&model.User{}, time.Duration(cooldownHours)*time.Hour, time.Now())
		if remaining != 0 {
			t.Fatalf("never-claimed user has remaining %v", remaining)
		}
	})
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "5s", FormatRemaining(5*time.Second))
	assert.Equal(t, "2m 0s", FormatRemaining(2*time.Minute))
	assert.Equal(t, "23h 59m 59s", FormatRemaining(24*time.Hour-time.Second))
	assert.Equal(t, "1m 1s", FormatRemaining(60*time.Second+700*time.Millisecond))
}
