package partition

import (
	"context"

	"github.com/frain-dev/timepart/datastore"
	"github.com/frain-dev/timepart/pkg/log"
)

// Backend is the set of schema-mutating capabilities a partitioning style
// must provide. The reconciler and manager only ever talk to this
// interface, so a native declarative-partitioning backend could be swapped
// in without touching either.
type Backend interface {
	// CreatePartition creates the child table for p, replicating every
	// index template onto it.
	CreatePartition(ctx context.Context, p datastore.Partition, templates []datastore.IndexTemplate) error

	// InstallRouting atomically replaces the routing function covering
	// the live chain, and installs the insert trigger when requested.
	InstallRouting(ctx context.Context, live datastore.PartitionChain, installTrigger bool) error

	// DemoteOldest drops the lower-bound constraint of p, converting it
	// into the unbounded-past partition.
	DemoteOldest(ctx context.Context, p datastore.Partition) error

	// DropPartition drops p's table, discarding its rows.
	DropPartition(ctx context.Context, p datastore.Partition) error

	// RemoveRouting drops the insert trigger and the routing function.
	RemoveRouting(ctx context.Context) error

	// DetachPartition removes p from the inheritance set.
	DetachPartition(ctx context.Context, p datastore.Partition) error

	// CopyPartitionRows folds a detached partition's rows back into the
	// parent table.
	CopyPartitionRows(ctx context.Context, p datastore.Partition) error
}

type inheritanceBackend struct {
	synth  *Synthesizer
	exec   datastore.StatementExecutor
	logger log.StdLogger
}

// NewInheritanceBackend returns the inheritance + CHECK constraint +
// routing-trigger implementation of Backend.
func NewInheritanceBackend(synth *Synthesizer, exec datastore.StatementExecutor, logger log.StdLogger) Backend {
	return &inheritanceBackend{synth: synth, exec: exec, logger: logger}
}

func (b *inheritanceBackend) CreatePartition(ctx context.Context, p datastore.Partition, templates []datastore.IndexTemplate) error {
	stmt, err := b.synth.CreatePartition(p, templates)
	if err != nil {
		return err
	}

	b.logger.Infof("adding partition %s to table %s", p.Name, p.Table)
	return b.exec.Exec(ctx, stmt)
}

func (b *inheritanceBackend) InstallRouting(ctx context.Context, live datastore.PartitionChain, installTrigger bool) error {
	stmt, err := b.synth.RoutingFunction(live)
	if err != nil {
		return err
	}

	if err := b.exec.Exec(ctx, stmt); err != nil {
		return err
	}

	if installTrigger {
		return b.exec.Exec(ctx, b.synth.InstallTrigger())
	}

	return nil
}

func (b *inheritanceBackend) DemoteOldest(ctx context.Context, p datastore.Partition) error {
	stmt, err := b.synth.DropLowerBoundConstraint(p.Name)
	if err != nil {
		return err
	}

	return b.exec.Exec(ctx, stmt)
}

func (b *inheritanceBackend) DropPartition(ctx context.Context, p datastore.Partition) error {
	stmt, err := b.synth.DropPartition(p.Name)
	if err != nil {
		return err
	}

	return b.exec.Exec(ctx, stmt)
}

func (b *inheritanceBackend) RemoveRouting(ctx context.Context) error {
	if err := b.exec.Exec(ctx, b.synth.DropTrigger()); err != nil {
		return err
	}

	return b.exec.Exec(ctx, b.synth.DropRoutingFunction())
}

func (b *inheritanceBackend) DetachPartition(ctx context.Context, p datastore.Partition) error {
	stmt, err := b.synth.DetachPartition(p.Name)
	if err != nil {
		return err
	}

	return b.exec.Exec(ctx, stmt)
}

func (b *inheritanceBackend) CopyPartitionRows(ctx context.Context, p datastore.Partition) error {
	stmt, err := b.synth.CopyPartitionRows(p.Name)
	if err != nil {
		return err
	}

	return b.exec.Exec(ctx, stmt)
}
