package partition

import (
	"context"
	"fmt"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/frain-dev/timepart/pkg/log"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v4"
)

// Clock supplies the reference instant for a reconciliation run.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock { return realClock{} }

// Manager orchestrates one managed table: it plans boundaries, reconciles
// them against the live catalog, and applies the resulting DDL through the
// backend in a fixed order. It implements datastore.Partitioner.
//
// The whole statement sequence of a run is expected to execute inside one
// externally managed transaction, and at most one Manager may reconcile a
// given table at a time; both are the caller's responsibility.
type Manager struct {
	table   string
	column  string
	bucket  time.Duration
	catalog datastore.CatalogRepository
	backend Backend
	format  FormatPolicy
	logger  log.StdLogger
	clock   Clock
}

type ManagerOption func(*Manager)

func WithTable(table, column string) ManagerOption {
	return func(m *Manager) {
		m.table = table
		m.column = column
	}
}

// WithBucket sets the width of each partition's time range.
func WithBucket(bucket time.Duration) ManagerOption {
	return func(m *Manager) {
		m.bucket = bucket
	}
}

func WithCatalog(catalog datastore.CatalogRepository) ManagerOption {
	return func(m *Manager) {
		m.catalog = catalog
	}
}

func WithBackend(backend Backend) ManagerOption {
	return func(m *Manager) {
		m.backend = backend
	}
}

func WithFormat(format FormatPolicy) ManagerOption {
	return func(m *Manager) {
		m.format = format
	}
}

func WithLogger(logger log.StdLogger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		format: DefaultFormat(),
		clock:  NewRealClock(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if _, err := NewIdentifier(m.table); err != nil {
		return nil, errors.Wrap(err, "table name")
	}

	if _, err := NewIdentifier(m.column); err != nil {
		return nil, errors.Wrap(err, "column name")
	}

	if m.bucket <= 0 {
		return nil, fmt.Errorf("%w: bucket duration must be positive, got %s", datastore.ErrInvalidArgument, m.bucket)
	}

	if m.catalog == nil || m.backend == nil {
		return nil, fmt.Errorf("%w: catalog and backend are required", datastore.ErrInvalidArgument)
	}

	if m.logger == nil {
		m.logger = log.NewNopLogger()
	}

	return m, nil
}

// PruneAndCreatePartitions drops every partition whose range has aged past
// retention, creates the partitions needed to cover pastCount/futureCount
// buckets around now, and regenerates the routing function over everything
// that remains live. It returns the number of partitions created.
//
// Statement order is fixed: create, route, demote, prune. The demotion of
// the new oldest partition must follow the routing swap; reversing the two
// opens a window where rows in the demoted range are rejected by the stale
// constraint before the new route exists.
func (m *Manager) PruneAndCreatePartitions(ctx context.Context, retention time.Duration, pastCount, futureCount int) (int, error) {
	if retention < 0 {
		return 0, fmt.Errorf("%w: retention must be >= 0, got %s", datastore.ErrInvalidArgument, retention)
	}

	logger := m.logger.WithFields(log.Fields{"table": m.table, "run_id": ulid.Make().String()})

	existing, err := m.listValidated(ctx)
	if err != nil {
		return 0, err
	}

	now := m.clock.Now().UTC()

	boundaries, err := Plan(now, m.bucket, pastCount, futureCount)
	if err != nil {
		return 0, err
	}

	result, err := Reconcile(existing, boundaries, now.Add(-retention))
	if err != nil {
		return 0, err
	}

	if result.NoOp() {
		logger.Infof("no partitions to prune or create on table %s", m.table)
		return 0, nil
	}

	templates, err := m.catalog.ListIndexTemplates(ctx, m.table)
	if err != nil {
		return 0, err
	}

	created, err := m.createPartitions(ctx, result, templates)
	if err != nil {
		return 0, err
	}

	live := append(append(datastore.PartitionChain{}, result.Keep...), created...)
	if err := m.backend.InstallRouting(ctx, live, len(existing) == 0); err != nil {
		return 0, errors.Wrap(err, "failed to install routing")
	}

	// Only after the routing function covers the new oldest partition by
	// boundary is its stale lower-bound constraint safe to drop.
	if len(result.Prune) > 0 && len(result.Keep) > 0 {
		oldest := result.Keep.Oldest()
		if oldest.RangeMinimum.Valid {
			if err := m.backend.DemoteOldest(ctx, oldest); err != nil {
				return 0, errors.Wrapf(err, "failed to demote partition %s", oldest.Name)
			}
		}
	}

	for _, p := range result.Prune {
		logger.Infof("pruning partition %s from table %s", p.Name, m.table)
		if err := m.backend.DropPartition(ctx, p); err != nil {
			return 0, errors.Wrapf(err, "failed to drop partition %s", p.Name)
		}
	}

	logger.Infof("created %d and pruned %d partition(s) on table %s", len(result.Create), len(result.Prune), m.table)
	return len(result.Create), nil
}

// createPartitions creates the planned partitions in ascending boundary
// order. Each new partition's lower bound is the previous partition's upper
// bound, starting from the newest kept partition, so the created set is
// contiguous and attaches contiguously to whatever is kept.
func (m *Manager) createPartitions(ctx context.Context, result ReconcileResult, templates []datastore.IndexTemplate) (datastore.PartitionChain, error) {
	var rangeMinimum null.Time
	if len(result.Keep) > 0 {
		rangeMinimum = null.TimeFrom(result.Keep.Newest().RangeLessThan)
	}

	created := make(datastore.PartitionChain, 0, len(result.Create))
	for _, boundary := range result.Create {
		p := datastore.Partition{
			Name:          m.format.PartitionName(m.table, boundary),
			Table:         m.table,
			Column:        m.column,
			RangeMinimum:  rangeMinimum,
			RangeLessThan: boundary,
		}

		if err := m.backend.CreatePartition(ctx, p, templates); err != nil {
			return nil, errors.Wrapf(err, "failed to create partition %s", p.Name)
		}

		created = append(created, p)
		rangeMinimum = null.TimeFrom(boundary)
	}

	return created, nil
}

// ListPartitions returns the live partition chain, oldest first. It is
// read-only and may run while a reconciliation is in flight; it reflects the
// last committed DDL.
func (m *Manager) ListPartitions(ctx context.Context) (datastore.PartitionChain, error) {
	return m.listValidated(ctx)
}

// RemoveAllPartitions undoes partitioning entirely while preserving data:
// it drops the trigger and routing function, detaches every partition from
// inheritance, copies each partition's rows back into the parent, and drops
// the now-standalone tables.
func (m *Manager) RemoveAllPartitions(ctx context.Context) error {
	logger := m.logger.WithFields(log.Fields{"table": m.table, "run_id": ulid.Make().String()})

	existing, err := m.listValidated(ctx)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		logger.Infof("table %s has no partitions to remove", m.table)
		return nil
	}

	if err := m.backend.RemoveRouting(ctx); err != nil {
		return errors.Wrap(err, "failed to remove routing")
	}

	for _, p := range existing {
		if err := m.backend.DetachPartition(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to detach partition %s", p.Name)
		}
	}

	for _, p := range existing {
		if err := m.backend.CopyPartitionRows(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to copy rows from partition %s", p.Name)
		}
	}

	for _, p := range existing {
		logger.Infof("dropping partition %s of table %s", p.Name, m.table)
		if err := m.backend.DropPartition(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to drop partition %s", p.Name)
		}
	}

	return nil
}

func (m *Manager) listValidated(ctx context.Context) (datastore.PartitionChain, error) {
	existing, err := m.catalog.ListPartitions(ctx, m.table, m.column)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list partitions")
	}

	if err := existing.Validate(); err != nil {
		return nil, err
	}

	return existing, nil
}
