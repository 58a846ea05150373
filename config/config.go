package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/kelseyhightower/envconfig"
)

// DefaultConfiguration carries the window shape most deployments start
// from: a week of daily buckets behind, three ahead, ninety days retained.
var DefaultConfiguration = Configuration{
	Partition: PartitionConfiguration{
		Column:            "created_at",
		BucketDuration:    1,
		BucketUnit:        UnitDay,
		PastCount:         7,
		FutureCount:       3,
		RetentionDuration: 90,
		RetentionUnit:     UnitDay,
	},
	Logger: LoggerConfiguration{Level: "info"},
}

type DatabaseConfiguration struct {
	Dsn string `json:"dsn" envconfig:"TIMEPART_DB_DSN"`
}

// Unit is a fixed-length duration unit. Calendar units are deliberately
// absent: boundary arithmetic must be deterministic, and months are not a
// fixed span.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
)

// Duration converts n units into a time.Duration.
func (u Unit) Duration(n int64) (time.Duration, error) {
	switch u {
	case UnitMinute:
		return time.Duration(n) * time.Minute, nil
	case UnitHour:
		return time.Duration(n) * time.Hour, nil
	case UnitDay:
		return time.Duration(n) * 24 * time.Hour, nil
	case UnitWeek:
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", datastore.ErrInvalidArgument, u)
	}
}

type PartitionConfiguration struct {
	Table             string `json:"table" envconfig:"TIMEPART_TABLE"`
	Column            string `json:"column" envconfig:"TIMEPART_COLUMN"`
	BucketDuration    int64  `json:"bucket_duration" envconfig:"TIMEPART_BUCKET_DURATION"`
	BucketUnit        Unit   `json:"bucket_unit" envconfig:"TIMEPART_BUCKET_UNIT"`
	PastCount         int    `json:"past_count" envconfig:"TIMEPART_PAST_COUNT"`
	FutureCount       int    `json:"future_count" envconfig:"TIMEPART_FUTURE_COUNT"`
	RetentionDuration int64  `json:"retention_duration" envconfig:"TIMEPART_RETENTION_DURATION"`
	RetentionUnit     Unit   `json:"retention_unit" envconfig:"TIMEPART_RETENTION_UNIT"`
}

// Bucket returns the width of one partition's range.
func (p PartitionConfiguration) Bucket() (time.Duration, error) {
	return p.BucketUnit.Duration(p.BucketDuration)
}

// Retention returns how far back partitions are kept.
func (p PartitionConfiguration) Retention() (time.Duration, error) {
	return p.RetentionUnit.Duration(p.RetentionDuration)
}

type LoggerConfiguration struct {
	Level string `json:"level" envconfig:"TIMEPART_LOG_LEVEL"`
}

type Configuration struct {
	Database  DatabaseConfiguration  `json:"database"`
	Partition PartitionConfiguration `json:"partition"`
	Logger    LoggerConfiguration    `json:"logger"`
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]*$`)

// Validate rejects malformed configuration before any planning begins.
func (c Configuration) Validate() error {
	if c.Database.Dsn == "" {
		return fmt.Errorf("%w: database dsn is required", datastore.ErrInvalidArgument)
	}

	if !identifierPattern.MatchString(c.Partition.Table) {
		return fmt.Errorf("%w: table %q is not a valid identifier", datastore.ErrInvalidArgument, c.Partition.Table)
	}

	if !identifierPattern.MatchString(c.Partition.Column) {
		return fmt.Errorf("%w: column %q is not a valid identifier", datastore.ErrInvalidArgument, c.Partition.Column)
	}

	bucket, err := c.Partition.Bucket()
	if err != nil {
		return err
	}

	if bucket <= 0 {
		return fmt.Errorf("%w: bucket duration must be positive, got %d %s", datastore.ErrInvalidArgument, c.Partition.BucketDuration, c.Partition.BucketUnit)
	}

	retention, err := c.Partition.Retention()
	if err != nil {
		return err
	}

	if retention < 0 {
		return fmt.Errorf("%w: retention must be >= 0, got %d %s", datastore.ErrInvalidArgument, c.Partition.RetentionDuration, c.Partition.RetentionUnit)
	}

	if c.Partition.PastCount < 0 || c.Partition.FutureCount < 0 {
		return fmt.Errorf("%w: partition counts must be >= 0", datastore.ErrInvalidArgument)
	}

	return nil
}

// LoadConfig reads configuration from an optional JSON file at p, applies
// environment overrides, and validates the result.
func LoadConfig(p string) (Configuration, error) {
	c := DefaultConfiguration

	if p != "" {
		f, err := os.Open(p)
		if err != nil {
			return Configuration{}, err
		}
		defer f.Close()

		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return Configuration{}, err
		}
	}

	if err := envconfig.Process("", &c); err != nil {
		return Configuration{}, err
	}

	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}

	return c, nil
}
