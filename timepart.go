// Package timepart maintains a rolling window of time-range partitions on a
// PostgreSQL table partitioned in the inheritance style: each partition is a
// full child table carrying range CHECK constraints, and a single trigger
// function routes every inserted row to the correct child.
package timepart

// Version of the timepart module.
const Version = "0.1.0"
