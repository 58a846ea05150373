package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/stretchr/testify/require"
)

func validConfig() Configuration {
	c := DefaultConfiguration
	c.Database.Dsn = "postgres://localhost/timepart"
	c.Partition.Table = "events"
	return c
}

func TestConfiguration_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfiguration_ValidateRejectsMissingDsn(t *testing.T) {
	c := validConfig()
	c.Database.Dsn = ""
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)
}

func TestConfiguration_ValidateRejectsUnsafeIdentifiers(t *testing.T) {
	c := validConfig()
	c.Partition.Table = "events; DROP TABLE users"
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)

	c = validConfig()
	c.Partition.Column = "created_at'--"
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)
}

func TestConfiguration_ValidateRejectsBadDurations(t *testing.T) {
	c := validConfig()
	c.Partition.BucketDuration = 0
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)

	c = validConfig()
	c.Partition.RetentionDuration = -1
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)

	c = validConfig()
	c.Partition.BucketUnit = "fortnight"
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)
}

func TestConfiguration_ValidateRejectsNegativeCounts(t *testing.T) {
	c := validConfig()
	c.Partition.PastCount = -1
	require.ErrorIs(t, c.Validate(), datastore.ErrInvalidArgument)
}

func TestUnit_Duration(t *testing.T) {
	d, err := UnitMinute.Duration(30)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, d)

	d, err = UnitDay.Duration(2)
	require.NoError(t, err)
	require.Equal(t, 48*time.Hour, d)

	d, err = UnitWeek.Duration(1)
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, d)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timepart.json")
	data := `{
		"database": {"dsn": "postgres://localhost/timepart"},
		"partition": {
			"table": "events",
			"column": "created_at",
			"bucket_duration": 1,
			"bucket_unit": "day",
			"past_count": 2,
			"future_count": 4,
			"retention_duration": 30,
			"retention_unit": "day"
		},
		"logger": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "events", cfg.Partition.Table)
	require.Equal(t, "created_at", cfg.Partition.Column)
	require.Equal(t, 2, cfg.Partition.PastCount)
	require.Equal(t, 4, cfg.Partition.FutureCount)

	bucket, err := cfg.Partition.Bucket()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, bucket)

	retention, err := cfg.Partition.Retention()
	require.NoError(t, err)
	require.Equal(t, 30*24*time.Hour, retention)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timepart.json")
	data := `{
		"database": {"dsn": "postgres://localhost/timepart"},
		"partition": {
			"table": "events",
			"column": "created_at",
			"bucket_duration": 1,
			"bucket_unit": "day",
			"past_count": 2,
			"future_count": 4,
			"retention_duration": 30,
			"retention_unit": "day"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	t.Setenv("TIMEPART_TABLE", "audit_log")
	t.Setenv("TIMEPART_FUTURE_COUNT", "9")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "audit_log", cfg.Partition.Table)
	require.Equal(t, 9, cfg.Partition.FutureCount)
}
