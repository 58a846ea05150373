package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

var (
	// ErrInvalidArgument is returned for malformed configuration such as a
	// non-positive bucket duration or a negative retention period. It is
	// always raised before any statement is issued.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPlan is returned when a reconciliation cannot produce a
	// valid partition chain, e.g. bootstrapping with fewer than two
	// boundaries.
	ErrInvalidPlan = errors.New("invalid partition plan")

	// ErrSchemaConflict is returned when the live catalog does not satisfy
	// the partition chain invariants. No automatic repair is attempted.
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrStatementFailure wraps any error returned by the statement
	// executor. The remaining statements of a run are not issued.
	ErrStatementFailure = errors.New("statement failure")
)

// Partition is one child table of a range-partitioned parent. Its name is
// derived from the parent table name and the upper boundary, so a partition
// with the same boundary always collides by name; creation relies on that
// for idempotence.
type Partition struct {
	Name          string
	Table         string
	Column        string
	RangeMinimum  null.Time // null only on the oldest partition (unbounded past)
	RangeLessThan time.Time // exclusive upper bound, always set
}

// Covers reports whether ts falls inside the partition's half-open range.
func (p Partition) Covers(ts time.Time) bool {
	if ts.Before(p.RangeLessThan) {
		return !p.RangeMinimum.Valid || !ts.Before(p.RangeMinimum.Time)
	}
	return false
}

// PartitionChain is an ordered set of partitions, ascending by
// RangeLessThan.
type PartitionChain []Partition

// Validate enforces the chain invariants: strictly increasing upper bounds,
// no gaps between adjacent partitions, and a null lower bound on the first
// partition only.
func (c PartitionChain) Validate() error {
	for i, p := range c {
		if p.RangeLessThan.IsZero() {
			return fmt.Errorf("%w: partition %s has no upper bound", ErrSchemaConflict, p.Name)
		}

		if i == 0 {
			continue
		}

		prev := c[i-1]
		if !prev.RangeLessThan.Before(p.RangeLessThan) {
			return fmt.Errorf("%w: partitions %s and %s are out of order", ErrSchemaConflict, prev.Name, p.Name)
		}

		if !p.RangeMinimum.Valid {
			return fmt.Errorf("%w: interior partition %s has an unbounded lower bound", ErrSchemaConflict, p.Name)
		}

		if !p.RangeMinimum.Time.Equal(prev.RangeLessThan) {
			return fmt.Errorf("%w: gap between partitions %s and %s", ErrSchemaConflict, prev.Name, p.Name)
		}
	}

	return nil
}

// Oldest returns the first partition of the chain. The chain must not be
// empty.
func (c PartitionChain) Oldest() Partition {
	return c[0]
}

// Newest returns the last partition of the chain. The chain must not be
// empty.
func (c PartitionChain) Newest() Partition {
	return c[len(c)-1]
}

func (c PartitionChain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// indexTablePlaceholder marks every occurrence of the parent table name in a
// captured index definition. Substituting it with a partition name yields
// both a partition-local index name and the correct target table.
const indexTablePlaceholder = "{{table}}"

// IndexTemplate is a parameterizable index definition captured from the
// parent table, used to replicate secondary indexes onto new partitions.
type IndexTemplate struct {
	definition string
}

// NewIndexTemplate abstracts the table name out of a raw index definition.
// A definition that does not mention the table cannot be parameterized and
// is reported as a schema conflict.
func NewIndexTemplate(indexDef, table string) (IndexTemplate, error) {
	if !strings.Contains(indexDef, table) {
		return IndexTemplate{}, fmt.Errorf("%w: index definition %q does not reference table %s", ErrSchemaConflict, indexDef, table)
	}

	return IndexTemplate{definition: strings.ReplaceAll(indexDef, table, indexTablePlaceholder)}, nil
}

// Render substitutes the partition name into the template, producing an
// executable index statement.
func (t IndexTemplate) Render(partitionName string) string {
	return strings.ReplaceAll(t.definition, indexTablePlaceholder, partitionName)
}

// Partitioner is the operation surface of a managed table.
type Partitioner interface {
	// PruneAndCreatePartitions drops every partition that has aged past
	// the retention period, creates the partitions needed to cover the
	// configured window, and regenerates the routing function. It returns
	// the number of partitions created.
	PruneAndCreatePartitions(ctx context.Context, retention time.Duration, pastCount, futureCount int) (int, error)

	// ListPartitions returns the live partition chain, oldest first.
	ListPartitions(ctx context.Context) (PartitionChain, error)

	// RemoveAllPartitions undoes partitioning entirely, folding every
	// partition's rows back into the parent table.
	RemoveAllPartitions(ctx context.Context) error
}

// CatalogRepository introspects the live schema. The live catalog is the
// only source of truth for the partition inventory; results are never
// cached.
type CatalogRepository interface {
	ListPartitions(ctx context.Context, table, column string) (PartitionChain, error)
	ListIndexTemplates(ctx context.Context, table string) ([]IndexTemplate, error)
}

// StatementExecutor applies opaque DDL/DML text. Transactional atomicity
// across a sequence of statements is the executor's concern, not the
// caller's.
type StatementExecutor interface {
	Exec(ctx context.Context, stmt string) error
}
