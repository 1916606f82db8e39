package engine

import (
	"fmt"
	"sort"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// HistogramPoint counts the records whose timestamp falls in
// [Time, Time+interval).
type HistogramPoint struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// ComputeHistogram aggregates record counts over time buckets.
// A zero start or end leaves that side open; match may be nil.
func ComputeHistogram(records []model.LogRecord, start, end, interval int64, match func(model.LogRecord) bool) ([]HistogramPoint, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("histogram interval must be positive, got %d", interval)
	}

	buckets := make(map[int64]int)
	for _, r := range records {
		ts := r.Timestamp
		if start > 0 && ts < start {
			continue
		}
		if end > 0 && ts > end {
			continue
		}
		if match != nil && !match(r) {
			continue
		}
		buckets[bucketStart(ts, interval)]++
	}

	points := make([]HistogramPoint, 0, len(buckets))
	for t, c := range buckets {
		points = append(points, HistogramPoint{Time: t, Count: c})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})

	return points, nil
}

// bucketStart floors ts to a multiple of interval, also for negative ts.
func bucketStart(ts, interval int64) int64 {
	b := ts / interval * interval
	if b > ts {
		b -= interval
	}
	return b
}
