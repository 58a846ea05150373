package partition

import (
	"testing"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/stretchr/testify/require"
)

func TestPlan_OneDayBuckets(t *testing.T) {
	day := 24 * time.Hour
	reference := time.Date(2026, 8, 25, 13, 42, 7, 0, time.UTC)
	dayStart := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	boundaries, err := Plan(reference, day, 1, 1)
	require.NoError(t, err)

	require.Len(t, boundaries, 2)
	require.True(t, boundaries[0].Equal(dayStart))
	require.True(t, boundaries[1].Equal(dayStart.Add(day)))
}

func TestPlan_CountAndSpacing(t *testing.T) {
	hour := time.Hour
	reference := time.Date(2026, 8, 25, 13, 42, 7, 0, time.UTC)

	boundaries, err := Plan(reference, hour, 3, 5)
	require.NoError(t, err)

	require.Len(t, boundaries, 8)
	for i := 1; i < len(boundaries); i++ {
		require.Equal(t, hour, boundaries[i].Sub(boundaries[i-1]))
	}
}

func TestPlan_Deterministic(t *testing.T) {
	reference := time.Date(2026, 8, 25, 13, 42, 7, 123456789, time.UTC)

	first, err := Plan(reference, 24*time.Hour, 2, 2)
	require.NoError(t, err)

	second, err := Plan(reference, 24*time.Hour, 2, 2)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestPlan_StrictlyIncreasing(t *testing.T) {
	boundaries, err := Plan(time.Now(), 6*time.Hour, 4, 4)
	require.NoError(t, err)

	for i := 1; i < len(boundaries); i++ {
		require.True(t, boundaries[i-1].Before(boundaries[i]))
	}
}

func TestPlan_RejectsNonPositiveBucket(t *testing.T) {
	_, err := Plan(time.Now(), 0, 1, 1)
	require.ErrorIs(t, err, datastore.ErrInvalidArgument)

	_, err = Plan(time.Now(), -time.Hour, 1, 1)
	require.ErrorIs(t, err, datastore.ErrInvalidArgument)
}

func TestPlan_RejectsNegativeCounts(t *testing.T) {
	_, err := Plan(time.Now(), time.Hour, -1, 1)
	require.ErrorIs(t, err, datastore.ErrInvalidArgument)

	_, err = Plan(time.Now(), time.Hour, 1, -1)
	require.ErrorIs(t, err, datastore.ErrInvalidArgument)
}

func TestPlan_ZeroCountsYieldEmptySet(t *testing.T) {
	boundaries, err := Plan(time.Now(), time.Hour, 0, 0)
	require.NoError(t, err)
	require.Empty(t, boundaries)
}
