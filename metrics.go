package cathapult

import (
	"sync/atomic"
	"time"

	"cathapult/colstore"
	"cathapult/summary"
)

// Collector receives operational metrics. Implement it to integrate with
// a monitoring system; BasicCollector covers in-process counters.
type Collector interface {
	// RecordBuild is called after each store build or reuse.
	RecordBuild(duration time.Duration, rows uint64, reused bool, err error)

	// RecordQuery is called after each store query with the pruning
	// counters of the pass.
	RecordQuery(duration time.Duration, stats colstore.QueryStats, err error)

	// RecordStream is called after each streaming filter pass.
	RecordStream(duration time.Duration, stats summary.StreamStats, err error)

	// RecordFetch is called after each batch fetch. failed counts
	// accessions whose fetch failed without aborting the batch.
	RecordFetch(duration time.Duration, total, failed int, err error)

	// RecordDownload is called after each bulk-file mirror.
	RecordDownload(duration time.Duration, bytes int64, err error)
}

// NoopCollector is a no-op implementation of Collector.
type NoopCollector struct{}

func (NoopCollector) RecordBuild(time.Duration, uint64, bool, error)         {}
func (NoopCollector) RecordQuery(time.Duration, colstore.QueryStats, error)  {}
func (NoopCollector) RecordStream(time.Duration, summary.StreamStats, error) {}
func (NoopCollector) RecordFetch(time.Duration, int, int, error)             {}
func (NoopCollector) RecordDownload(time.Duration, int64, error)             {}

// BasicCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicCollector struct {
	BuildCount      atomic.Int64
	BuildReused     atomic.Int64
	BuildErrors     atomic.Int64
	BuildRows       atomic.Int64
	BuildTotalNanos atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryMatched    atomic.Int64
	QueryBlocksRead atomic.Int64
	QueryBlocksSkip atomic.Int64
	QueryTotalNanos atomic.Int64
	StreamCount     atomic.Int64
	StreamErrors    atomic.Int64
	StreamMatched   atomic.Int64
	FetchCount      atomic.Int64
	FetchAccessions atomic.Int64
	FetchFailed     atomic.Int64
	FetchErrors     atomic.Int64
	FetchTotalNanos atomic.Int64
	DownloadCount   atomic.Int64
	DownloadErrors  atomic.Int64
	DownloadBytes   atomic.Int64
}

// RecordBuild implements Collector.
func (b *BasicCollector) RecordBuild(duration time.Duration, rows uint64, reused bool, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(int64(rows))
	if reused {
		b.BuildReused.Add(1)
	}
}

// RecordQuery implements Collector.
func (b *BasicCollector) RecordQuery(duration time.Duration, stats colstore.QueryStats, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.QueryMatched.Add(stats.RowsMatched)
	b.QueryBlocksRead.Add(int64(stats.BlocksScanned))
	b.QueryBlocksSkip.Add(int64(stats.BlocksSkippedRange + stats.BlocksSkippedBloom))
}

// RecordStream implements Collector.
func (b *BasicCollector) RecordStream(duration time.Duration, stats summary.StreamStats, err error) {
	b.StreamCount.Add(1)
	if err != nil {
		b.StreamErrors.Add(1)
		return
	}
	b.StreamMatched.Add(stats.Matched)
}

// RecordFetch implements Collector.
func (b *BasicCollector) RecordFetch(duration time.Duration, total, failed int, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	b.FetchAccessions.Add(int64(total))
	b.FetchFailed.Add(int64(failed))
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordDownload implements Collector.
func (b *BasicCollector) RecordDownload(duration time.Duration, bytes int64, err error) {
	b.DownloadCount.Add(1)
	if err != nil {
		b.DownloadErrors.Add(1)
		return
	}
	b.DownloadBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicCollector) GetStats() CollectorStats {
	return CollectorStats{
		BuildCount:      b.BuildCount.Load(),
		BuildReused:     b.BuildReused.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildRows:       b.BuildRows.Load(),
		BuildAvgNanos:   avgNanos(&b.BuildTotalNanos, &b.BuildCount),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryMatched:    b.QueryMatched.Load(),
		QueryBlocksRead: b.QueryBlocksRead.Load(),
		QueryBlocksSkip: b.QueryBlocksSkip.Load(),
		QueryAvgNanos:   avgNanos(&b.QueryTotalNanos, &b.QueryCount),
		StreamCount:     b.StreamCount.Load(),
		StreamErrors:    b.StreamErrors.Load(),
		StreamMatched:   b.StreamMatched.Load(),
		FetchCount:      b.FetchCount.Load(),
		FetchAccessions: b.FetchAccessions.Load(),
		FetchFailed:     b.FetchFailed.Load(),
		FetchErrors:     b.FetchErrors.Load(),
		FetchAvgNanos:   avgNanos(&b.FetchTotalNanos, &b.FetchCount),
		DownloadCount:   b.DownloadCount.Load(),
		DownloadErrors:  b.DownloadErrors.Load(),
		DownloadBytes:   b.DownloadBytes.Load(),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	n := count.Load()
	if n == 0 {
		return 0
	}
	return total.Load() / n
}

// CollectorStats is a snapshot of BasicCollector state.
type CollectorStats struct {
	BuildCount      int64
	BuildReused     int64
	BuildErrors     int64
	BuildRows       int64
	BuildAvgNanos   int64
	QueryCount      int64
	QueryErrors     int64
	QueryMatched    int64
	QueryBlocksRead int64
	QueryBlocksSkip int64
	QueryAvgNanos   int64
	StreamCount     int64
	StreamErrors    int64
	StreamMatched   int64
	FetchCount      int64
	FetchAccessions int64
	FetchFailed     int64
	FetchErrors     int64
	FetchAvgNanos   int64
	DownloadCount   int64
	DownloadErrors  int64
	DownloadBytes   int64
}
