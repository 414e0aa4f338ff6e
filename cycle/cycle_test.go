package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bybuy30/leave-tracker/cycle"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestExpired(t *testing.T) {
	policy := cycle.Default()

	assert.True(t, policy.Expired(time.Time{}, now), "absent start fails open toward a fresh cycle")
	assert.True(t, policy.Expired(now.AddDate(0, 0, -365), now), "exactly 365 days is expired")
	assert.True(t, policy.Expired(now.AddDate(0, 0, -400), now))
	assert.False(t, policy.Expired(now.AddDate(0, 0, -364), now))
	assert.False(t, policy.Expired(now, now))
}

func TestDaysRemaining(t *testing.T) {
	policy := cycle.Default()

	assert.Equal(t, 365, policy.DaysRemaining(time.Time{}, now), "absent start yields a full cycle")
	assert.Equal(t, 365, policy.DaysRemaining(now, now))
	assert.Equal(t, 1, policy.DaysRemaining(now.AddDate(0, 0, -364), now))
	assert.Equal(t, 0, policy.DaysRemaining(now.AddDate(0, 0, -365), now))
	assert.Equal(t, 0, policy.DaysRemaining(now.AddDate(0, 0, -1000), now), "never negative")
}

func TestCustomCycleLength(t *testing.T) {
	policy := cycle.Policy{Days: 30}

	assert.False(t, policy.Expired(now.AddDate(0, 0, -29), now))
	assert.True(t, policy.Expired(now.AddDate(0, 0, -30), now))
	assert.Equal(t, 10, policy.DaysRemaining(now.AddDate(0, 0, -20), now))
}
