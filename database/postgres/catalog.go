package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"sort"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/frain-dev/timepart/database"
	"github.com/frain-dev/timepart/internal/pkg/partition"
	"gopkg.in/guregu/null.v4"
)

const (
	fetchPartitions = `
	SELECT child.relname AS partition_name,
	  pg_get_constraintdef(before_check.oid) AS before_check,
	  pg_get_constraintdef(on_or_after_check.oid) AS on_or_after_check
	FROM pg_constraint before_check
	INNER JOIN pg_class child
	  ON before_check.conrelid = child.oid
	LEFT OUTER JOIN pg_constraint on_or_after_check
	  ON child.oid = on_or_after_check.conrelid
	  AND on_or_after_check.conname = 'on_or_after_check'
	INNER JOIN pg_inherits inheritance
	  ON inheritance.inhrelid = child.oid
	INNER JOIN pg_class parent
	  ON inheritance.inhparent = parent.oid
	WHERE parent.relname = $1
	AND before_check.conname = 'before_check'
	ORDER BY child.relname;
	`

	fetchIndexDefinitions = `
	SELECT indexdef FROM pg_indexes WHERE tablename = $1;
	`
)

// boundLiteral extracts the timestamp literal out of a CHECK constraint
// definition such as
// CHECK ((created_at < '2026-08-26 00:00:00'::timestamp without time zone)).
var boundLiteral = regexp.MustCompile(`'(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})'`)

type catalogRepo struct {
	db     database.Database
	format partition.FormatPolicy
}

// NewCatalogRepo returns the pg_catalog-backed partition inventory reader.
// It is read-only; run it inside a transaction when a consistent snapshot
// is required.
func NewCatalogRepo(db database.Database, format partition.FormatPolicy) datastore.CatalogRepository {
	return &catalogRepo{db: db, format: format}
}

type partitionRow struct {
	PartitionName  string         `db:"partition_name"`
	BeforeCheck    string         `db:"before_check"`
	OnOrAfterCheck sql.NullString `db:"on_or_after_check"`
}

func (c *catalogRepo) ListPartitions(ctx context.Context, table, column string) (datastore.PartitionChain, error) {
	rows, err := c.db.GetDB().QueryxContext(ctx, fetchPartitions, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
	}
	defer closeWithError(rows)

	var chain datastore.PartitionChain
	for rows.Next() {
		var row partitionRow
		if err = rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
		}

		p, err := c.partitionFromRow(table, column, row)
		if err != nil {
			return nil, err
		}

		chain = append(chain, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
	}

	// The fixed-width name suffix makes relname order match boundary
	// order, but the parsed bounds are authoritative.
	sort.Slice(chain, func(i, j int) bool {
		return chain[i].RangeLessThan.Before(chain[j].RangeLessThan)
	})

	return chain, nil
}

func (c *catalogRepo) partitionFromRow(table, column string, row partitionRow) (datastore.Partition, error) {
	rangeLessThan, err := c.parseBound(row.BeforeCheck)
	if err != nil {
		return datastore.Partition{}, fmt.Errorf("%w: partition %s: %v", datastore.ErrSchemaConflict, row.PartitionName, err)
	}

	var rangeMinimum null.Time
	if row.OnOrAfterCheck.Valid {
		minimum, err := c.parseBound(row.OnOrAfterCheck.String)
		if err != nil {
			return datastore.Partition{}, fmt.Errorf("%w: partition %s: %v", datastore.ErrSchemaConflict, row.PartitionName, err)
		}
		rangeMinimum = null.TimeFrom(minimum)
	}

	return datastore.Partition{
		Name:          row.PartitionName,
		Table:         table,
		Column:        column,
		RangeMinimum:  rangeMinimum,
		RangeLessThan: rangeLessThan,
	}, nil
}

func (c *catalogRepo) parseBound(constraintDef string) (time.Time, error) {
	m := boundLiteral.FindStringSubmatch(constraintDef)
	if m == nil {
		return time.Time{}, fmt.Errorf("no timestamp literal in constraint %q", constraintDef)
	}

	return c.format.ParseTimestamp(m[1])
}

func closeWithError(closer io.Closer) {
	err := closer.Close()
	if err != nil {
		fmt.Printf("%v, an error occurred while closing the rows", err)
	}
}

func (c *catalogRepo) ListIndexTemplates(ctx context.Context, table string) ([]datastore.IndexTemplate, error) {
	rows, err := c.db.GetDB().QueryxContext(ctx, fetchIndexDefinitions, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
	}
	defer closeWithError(rows)

	var templates []datastore.IndexTemplate
	for rows.Next() {
		var indexDef string
		if err = rows.Scan(&indexDef); err != nil {
			return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
		}

		tmpl, err := datastore.NewIndexTemplate(indexDef, table)
		if err != nil {
			return nil, err
		}

		templates = append(templates, tmpl)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
	}

	return templates, nil
}
