package partition

import (
	"fmt"
	"regexp"
	"time"

	"github.com/frain-dev/timepart/datastore"
)

// FormatPolicy fixes how timestamps and object names are rendered in
// generated SQL. Partition names embed the upper boundary, and generated
// timestamp literals are compared back against catalog text on re-runs, so
// both layouts must stay bit-exact between the synthesizer and the catalog
// reader. A policy value is passed explicitly wherever formatting happens.
type FormatPolicy struct {
	// TimestampLayout renders boundary timestamps inside SQL literals.
	TimestampLayout string

	// NameLayout renders the boundary suffix of a partition name.
	NameLayout string

	// Location all boundaries are rendered in.
	Location *time.Location
}

// DefaultFormat returns the canonical policy: fixed-width UTC layouts.
func DefaultFormat() FormatPolicy {
	return FormatPolicy{
		TimestampLayout: "2006-01-02 15:04:05",
		NameLayout:      "20060102150405",
		Location:        time.UTC,
	}
}

// Timestamp renders ts the way it appears inside generated SQL literals.
func (f FormatPolicy) Timestamp(ts time.Time) string {
	return ts.In(f.Location).Format(f.TimestampLayout)
}

// ParseTimestamp is the inverse of Timestamp, used when reading bounds back
// out of catalog constraint text.
func (f FormatPolicy) ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(f.TimestampLayout, s, f.Location)
}

// PartitionName derives the child table name for the partition whose
// exclusive upper bound is rangeLessThan.
func (f FormatPolicy) PartitionName(table string, rangeLessThan time.Time) string {
	return table + "_p" + rangeLessThan.In(f.Location).Format(f.NameLayout)
}

// TriggerName derives the insert trigger name for table.
func (f FormatPolicy) TriggerName(table string) string {
	return "ins_" + table + "_trg"
}

// FunctionName derives the routing function name for table.
func (f FormatPolicy) FunctionName(table string) string {
	return table + "_ins_trg_fn"
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]*$`)

// Identifier is a SQL identifier that has been validated once, centrally,
// before it can appear in generated statement text.
type Identifier string

// NewIdentifier validates name as a plain SQL identifier.
func NewIdentifier(name string) (Identifier, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q is not a valid identifier", datastore.ErrInvalidArgument, name)
	}
	return Identifier(name), nil
}

func (i Identifier) String() string {
	return string(i)
}

// literal renders ts as a PostgreSQL timestamp literal fragment.
func (f FormatPolicy) literal(ts time.Time) string {
	return "'" + f.Timestamp(ts) + "'::timestamp without time zone"
}
