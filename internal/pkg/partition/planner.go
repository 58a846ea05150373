package partition

import (
	"fmt"
	"time"

	"github.com/frain-dev/timepart/datastore"
)

// BoundarySet is an ordered, strictly increasing sequence of candidate
// partition upper bounds.
type BoundarySet []time.Time

// Plan computes the partition boundaries that should exist around reference:
// pastCount boundaries at or below the bucket containing reference and
// futureCount boundaries above it, spaced by bucket. The reference is
// truncated to a bucket multiple, so the result depends only on the
// arguments.
func Plan(reference time.Time, bucket time.Duration, pastCount, futureCount int) (BoundarySet, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("%w: bucket duration must be positive, got %s", datastore.ErrInvalidArgument, bucket)
	}

	if pastCount < 0 || futureCount < 0 {
		return nil, fmt.Errorf("%w: partition counts must be >= 0, got past=%d future=%d", datastore.ErrInvalidArgument, pastCount, futureCount)
	}

	base := reference.UTC().Truncate(bucket)

	boundaries := make(BoundarySet, 0, pastCount+futureCount)
	for i := 1 - pastCount; i <= futureCount; i++ {
		boundaries = append(boundaries, base.Add(time.Duration(i)*bucket))
	}

	return boundaries, nil
}
