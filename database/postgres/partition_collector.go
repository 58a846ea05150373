package postgres

import (
	"context"
	"time"

	"github.com/frain-dev/timepart/datastore"
	"github.com/frain-dev/timepart/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace used in fully-qualified metrics names.
const namespace = "timepart"

var (
	partitionsLiveDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "partitions_live"),
		"Number of live partitions on the managed table",
		[]string{"table"}, nil,
	)

	oldestBoundaryDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "partition_oldest_boundary_seconds"),
		"Upper boundary of the oldest live partition as a unix timestamp",
		[]string{"table"}, nil,
	)

	newestBoundaryDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "partition_newest_boundary_seconds"),
		"Upper boundary of the newest live partition as a unix timestamp",
		[]string{"table"}, nil,
	)
)

// PartitionCollector exports partition inventory stats for one managed
// table. It only reads the catalog; scraping can run while a
// reconciliation is in flight and reflects the last committed DDL.
type PartitionCollector struct {
	catalog datastore.CatalogRepository
	table   string
	column  string
	timeout time.Duration
	logger  log.StdLogger
}

func NewPartitionCollector(catalog datastore.CatalogRepository, table, column string, logger log.StdLogger) *PartitionCollector {
	return &PartitionCollector{
		catalog: catalog,
		table:   table,
		column:  column,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

func (c *PartitionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- partitionsLiveDesc
	ch <- oldestBoundaryDesc
	ch <- newestBoundaryDesc
}

func (c *PartitionCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	chain, err := c.catalog.ListPartitions(ctx, c.table, c.column)
	if err != nil {
		c.logger.WithError(err).Errorf("failed to collect partition metrics for table %s", c.table)
		return
	}

	ch <- prometheus.MustNewConstMetric(partitionsLiveDesc, prometheus.GaugeValue, float64(len(chain)), c.table)

	if len(chain) == 0 {
		return
	}

	ch <- prometheus.MustNewConstMetric(oldestBoundaryDesc, prometheus.GaugeValue, float64(chain.Oldest().RangeLessThan.Unix()), c.table)
	ch <- prometheus.MustNewConstMetric(newestBoundaryDesc, prometheus.GaugeValue, float64(chain.Newest().RangeLessThan.Unix()), c.table)
}
