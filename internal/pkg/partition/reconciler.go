package partition

import (
	"fmt"
	"time"

	"github.com/frain-dev/timepart/datastore"
)

// ReconcileResult partitions the desired state into the three disjoint sets
// the orchestrator acts on.
type ReconcileResult struct {
	// Keep is the surviving part of the existing chain, oldest first.
	Keep datastore.PartitionChain

	// Create holds the boundaries of partitions to add, ascending.
	Create BoundarySet

	// Prune is the expired part of the existing chain, oldest first.
	Prune datastore.PartitionChain
}

// NoOp reports whether the reconciliation requires no schema change.
func (r ReconcileResult) NoOp() bool {
	return len(r.Create) == 0 && len(r.Prune) == 0
}

// LiveCount is the number of partitions that remain after applying the
// result.
func (r ReconcileResult) LiveCount() int {
	return len(r.Keep) + len(r.Create)
}

// Reconcile diffs the existing partition chain against the planned
// boundaries and the retention cutoff.
//
// An existing partition is pruned iff its upper bound is at or before
// pruneCutoff. A planned boundary produces a new partition only when it lies
// strictly above the newest existing boundary: a boundary that collides with
// an existing one is already represented (the existing partition wins), and
// one below the newest would overlap the chain, so both are discarded. The
// chain therefore only ever grows at the head, and re-running the same plan
// is a no-op.
func Reconcile(existing datastore.PartitionChain, boundaries BoundarySet, pruneCutoff time.Time) (ReconcileResult, error) {
	var result ReconcileResult

	if len(existing) == 0 && len(boundaries) > 0 && len(boundaries) < 2 {
		// A lone partition cannot express a bounded range without a
		// neighbor, so bootstrap needs at least two boundaries.
		return ReconcileResult{}, fmt.Errorf("%w: bootstrapping requires at least two boundaries, got %d", datastore.ErrInvalidPlan, len(boundaries))
	}

	for _, p := range existing {
		if p.RangeLessThan.After(pruneCutoff) {
			result.Keep = append(result.Keep, p)
		} else {
			result.Prune = append(result.Prune, p)
		}
	}

	for _, b := range boundaries {
		if len(existing) > 0 && !b.After(existing.Newest().RangeLessThan) {
			continue
		}
		result.Create = append(result.Create, b)
	}

	if result.NoOp() {
		return result, nil
	}

	if result.LiveCount() < 2 {
		return ReconcileResult{}, fmt.Errorf("%w: %d partition(s) would remain live, need at least 2", datastore.ErrInvalidPlan, result.LiveCount())
	}

	return result, nil
}
