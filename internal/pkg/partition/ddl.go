package partition

import (
	"fmt"
	"strings"

	"github.com/frain-dev/timepart/datastore"
)

const (
	// BeforeCheckConstraint enforces the exclusive upper bound on every
	// partition.
	BeforeCheckConstraint = "before_check"

	// OnOrAfterCheckConstraint enforces the inclusive lower bound. The
	// oldest partition carries no such constraint; it absorbs the
	// unbounded past.
	OnOrAfterCheckConstraint = "on_or_after_check"
)

// Synthesizer renders the DDL for one managed table. Statements are built
// from validated identifiers and policy-formatted timestamp literals, so
// escaping is enforced here once rather than at each call site.
type Synthesizer struct {
	table  Identifier
	column Identifier
	format FormatPolicy
}

func NewSynthesizer(table, column string, format FormatPolicy) (*Synthesizer, error) {
	tableIdent, err := NewIdentifier(table)
	if err != nil {
		return nil, err
	}

	columnIdent, err := NewIdentifier(column)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{table: tableIdent, column: columnIdent, format: format}, nil
}

// CreatePartition renders the statement creating partition p: a child table
// inheriting the parent's structure, carrying the range CHECK constraints,
// followed by one statement per index template so the partition ends up with
// the same secondary indexes as its parent. The lower-bound constraint is
// omitted when p has no lower bound.
func (s *Synthesizer) CreatePartition(p datastore.Partition, templates []datastore.IndexTemplate) (string, error) {
	name, err := NewIdentifier(p.Name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(name.String())
	b.WriteString(" (\n")
	if p.RangeMinimum.Valid {
		fmt.Fprintf(&b, "\tCONSTRAINT %s CHECK (%s >= %s),\n",
			OnOrAfterCheckConstraint, s.column, s.format.literal(p.RangeMinimum.Time))
	}
	fmt.Fprintf(&b, "\tCONSTRAINT %s CHECK (%s < %s)\n",
		BeforeCheckConstraint, s.column, s.format.literal(p.RangeLessThan))
	fmt.Fprintf(&b, ") INHERITS (%s);\n", s.table)

	for _, tmpl := range templates {
		b.WriteString(tmpl.Render(name.String()))
		b.WriteString(";\n")
	}

	return b.String(), nil
}

// RoutingFunction renders the single trigger function dispatching inserts
// across the live chain. The newest partition is tested first (inserts of
// recent rows are the common case), interior partitions follow in
// descending order, everything below the oldest partition's upper bound
// lands in the oldest partition, and anything else raises 'Date out of
// range'. The branch order is documented behavior; callers and tests rely
// on it.
func (s *Synthesizer) RoutingFunction(live datastore.PartitionChain) (string, error) {
	if len(live) < 2 {
		return "", fmt.Errorf("%w: routing function needs at least 2 live partitions, got %d", datastore.ErrInvalidPlan, len(live))
	}

	newest := live.Newest()
	oldest := live.Oldest()

	if !newest.RangeMinimum.Valid {
		return "", fmt.Errorf("%w: newest partition %s has no lower bound", datastore.ErrInvalidPlan, newest.Name)
	}

	names := make([]Identifier, len(live))
	for i, p := range live {
		name, err := NewIdentifier(p.Name)
		if err != nil {
			return "", err
		}
		names[i] = name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE FUNCTION %s()\n", s.format.FunctionName(s.table.String()))
	b.WriteString("RETURNS TRIGGER AS $$\n")
	b.WriteString("BEGIN\n")

	fmt.Fprintf(&b, "\tIF ( NEW.%s >= %s AND\n\t     NEW.%s < %s ) THEN\n\t\tINSERT INTO %s VALUES (NEW.*);\n",
		s.column, s.format.literal(newest.RangeMinimum.Time),
		s.column, s.format.literal(newest.RangeLessThan),
		names[len(live)-1])

	for i := len(live) - 2; i >= 1; i-- {
		p := live[i]
		fmt.Fprintf(&b, "\tELSIF ( NEW.%s >= %s AND\n\t     NEW.%s < %s ) THEN\n\t\tINSERT INTO %s VALUES (NEW.*);\n",
			s.column, s.format.literal(p.RangeMinimum.Time),
			s.column, s.format.literal(p.RangeLessThan),
			names[i])
	}

	fmt.Fprintf(&b, "\tELSIF ( NEW.%s < %s ) THEN\n\t\tINSERT INTO %s VALUES (NEW.*);\n",
		s.column, s.format.literal(oldest.RangeLessThan), names[0])

	b.WriteString("\tELSE\n\t\tRAISE EXCEPTION 'Date out of range';\n")
	b.WriteString("\tEND IF;\n")
	b.WriteString("\tRETURN NULL;\n")
	b.WriteString("END;\n")
	b.WriteString("$$\nLANGUAGE plpgsql;")

	return b.String(), nil
}

// InstallTrigger renders the idempotent statement wiring the routing
// function to the parent table's inserts.
func (s *Synthesizer) InstallTrigger() string {
	trigger := s.format.TriggerName(s.table.String())
	fn := s.format.FunctionName(s.table.String())

	var b strings.Builder
	fmt.Fprintf(&b, "DROP TRIGGER IF EXISTS %s ON %s;\n", trigger, s.table)
	fmt.Fprintf(&b, "CREATE TRIGGER %s BEFORE INSERT ON %s\n", trigger, s.table)
	fmt.Fprintf(&b, "\tFOR EACH ROW EXECUTE PROCEDURE %s();", fn)

	return b.String()
}

// DropLowerBoundConstraint renders the statement demoting a partition to
// unbounded past. The constraint is dropped, never rewritten.
func (s *Synthesizer) DropLowerBoundConstraint(partitionName string) (string, error) {
	name, err := NewIdentifier(partitionName)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", name, OnOrAfterCheckConstraint), nil
}

func (s *Synthesizer) DropPartition(partitionName string) (string, error) {
	name, err := NewIdentifier(partitionName)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("DROP TABLE %s;", name), nil
}

func (s *Synthesizer) DropTrigger() string {
	return fmt.Sprintf("DROP TRIGGER %s ON %s;", s.format.TriggerName(s.table.String()), s.table)
}

func (s *Synthesizer) DropRoutingFunction() string {
	return fmt.Sprintf("DROP FUNCTION %s();", s.format.FunctionName(s.table.String()))
}

// DetachPartition renders the statement removing a partition from the
// parent's inheritance set, leaving it as a standalone table.
func (s *Synthesizer) DetachPartition(partitionName string) (string, error) {
	name, err := NewIdentifier(partitionName)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("ALTER TABLE %s NO INHERIT %s;", name, s.table), nil
}

// CopyPartitionRows renders the statement folding a detached partition's
// rows back into the parent table.
func (s *Synthesizer) CopyPartitionRows(partitionName string) (string, error) {
	name, err := NewIdentifier(partitionName)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("INSERT INTO %s SELECT * FROM %s;", s.table, name), nil
}
