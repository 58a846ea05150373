package partition

import (
	"testing"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

var day = 24 * time.Hour

func chainAt(t *testing.T, boundaries ...time.Time) datastore.PartitionChain {
	t.Helper()

	format := DefaultFormat()
	chain := make(datastore.PartitionChain, 0, len(boundaries))
	var lower null.Time
	for _, b := range boundaries {
		chain = append(chain, datastore.Partition{
			Name:          format.PartitionName("events", b),
			Table:         "events",
			Column:        "created_at",
			RangeMinimum:  lower,
			RangeLessThan: b,
		})
		lower = null.TimeFrom(b)
	}

	require.NoError(t, chain.Validate())
	return chain
}

func TestReconcile_PruneCutoff(t *testing.T) {
	d1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(day)
	d3 := d2.Add(day)
	existing := chainAt(t, d1, d2, d3)

	result, err := Reconcile(existing, nil, d1)
	require.NoError(t, err)

	// a partition is pruned iff its upper bound is at or before the cutoff
	require.Len(t, result.Prune, 1)
	require.Equal(t, existing[0].Name, result.Prune[0].Name)
	require.Len(t, result.Keep, 2)
	for _, p := range result.Keep {
		require.True(t, p.RangeLessThan.After(d1))
	}
}

func TestReconcile_ExistingBoundaryWins(t *testing.T) {
	d1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(day)
	existing := chainAt(t, d1, d2)

	result, err := Reconcile(existing, BoundarySet{d2, d2.Add(day)}, d1.Add(-day))
	require.NoError(t, err)

	require.Len(t, result.Create, 1)
	require.True(t, result.Create[0].Equal(d2.Add(day)))
}

func TestReconcile_DiscardsBoundariesBelowNewest(t *testing.T) {
	d1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(day)
	d3 := d2.Add(day)
	existing := chainAt(t, d1, d2, d3)

	// a boundary between existing ones would overlap the chain
	result, err := Reconcile(existing, BoundarySet{d1.Add(12 * time.Hour), d3.Add(day)}, d1.Add(-day))
	require.NoError(t, err)

	require.Len(t, result.Create, 1)
	require.True(t, result.Create[0].Equal(d3.Add(day)))
}

func TestReconcile_BootstrapRequiresTwoBoundaries(t *testing.T) {
	d := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	_, err := Reconcile(nil, BoundarySet{d}, d.Add(-30*day))
	require.ErrorIs(t, err, datastore.ErrInvalidPlan)
}

func TestReconcile_Bootstrap(t *testing.T) {
	d := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	result, err := Reconcile(nil, BoundarySet{d, d.Add(day)}, d.Add(-30*day))
	require.NoError(t, err)

	require.Empty(t, result.Keep)
	require.Empty(t, result.Prune)
	require.Len(t, result.Create, 2)
}

func TestReconcile_NoOp(t *testing.T) {
	d1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	existing := chainAt(t, d1, d1.Add(day))

	result, err := Reconcile(existing, nil, d1.Add(-day))
	require.NoError(t, err)
	require.True(t, result.NoOp())

	result, err = Reconcile(existing, BoundarySet{d1, d1.Add(day)}, d1.Add(-day))
	require.NoError(t, err)
	require.True(t, result.NoOp())
}

func TestReconcile_EmptyPlanAndEmptyInventory(t *testing.T) {
	result, err := Reconcile(nil, nil, time.Now())
	require.NoError(t, err)
	require.True(t, result.NoOp())
}

func TestReconcile_RejectsSingleSurvivor(t *testing.T) {
	d1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	existing := chainAt(t, d1, d1.Add(day))

	// pruning one of two without creating anything leaves a lone partition
	_, err := Reconcile(existing, nil, d1)
	require.ErrorIs(t, err, datastore.ErrInvalidPlan)
}
