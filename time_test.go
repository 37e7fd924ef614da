package tenancy_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-48 * time.Hour)

	within, err := tenancy.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, within)

	within, err = tenancy.IsWithinThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.False(t, within)

	_, err = tenancy.IsWithinThresholdPeriod(recent, "not-a-duration")
	assert.Error(t, err)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-48 * time.Hour)

	outside, err := tenancy.IsOutsideThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.False(t, outside)

	outside, err = tenancy.IsOutsideThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.True(t, outside)
}
