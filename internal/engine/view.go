package engine

import (
	"fmt"
	"sort"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// View is one fetched collection of records together with its table.
// Lookups and aggregates read the table's working rows, so a row removed
// by a destructive action disappears from them as well.
type View struct {
	table *Table[model.LogRecord]
}

// NewView indexes records and builds a table over LogColumns.
func NewView(records []model.LogRecord, opts ...TableOption) (*View, error) {
	return NewViewWithColumns(records, LogColumns(), opts...)
}

// NewViewWithColumns is NewView with a custom column schema.
func NewViewWithColumns(records []model.LogRecord, cols []Column[model.LogRecord], opts ...TableOption) (*View, error) {
	table, err := NewTable(records, cols, opts...)
	if err != nil {
		return nil, err
	}
	table.SetQueryFields(QueryFields)

	return &View{table: table}, nil
}

// Table returns the review table.
func (v *View) Table() *Table[model.LogRecord] { return v.table }

// Records returns the working collection in its original order.
func (v *View) Records() []model.LogRecord { return v.table.Rows() }

// Record looks a record up by id.
func (v *View) Record(id string) (model.LogRecord, bool) { return v.table.Row(id) }

// Stream returns the records of one stream ordered by StreamIndex.
func (v *View) Stream(streamID string) []model.LogRecord {
	var out []model.LogRecord
	for _, r := range v.table.rows {
		if streamID != "" && r.StreamID == streamID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StreamIndex < out[j].StreamIndex
	})
	return out
}

// ContextResult represents the result of a context query.
type ContextResult struct {
	Pre    []model.LogRecord // Records before the anchor
	Anchor model.LogRecord   // The target record
	Post   []model.LogRecord // Records after the anchor
}

// Context returns up to limit records on each side of id, by timestamp.
// Records from other agents are included.
func (v *View) Context(id string, limit int) (*ContextResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if _, ok := v.table.Row(id); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}

	// Sort a copy by timestamp (ascending for easier processing)
	all := v.table.Rows()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})

	anchorIdx := 0
	for i, r := range all {
		if r.ID == id {
			anchorIdx = i
			break
		}
	}

	result := &ContextResult{Anchor: all[anchorIdx]}

	// Collect pre (before anchor)
	preStart := anchorIdx - limit
	if preStart < 0 {
		preStart = 0
	}
	result.Pre = append([]model.LogRecord{}, all[preStart:anchorIdx]...)

	// Collect post (after anchor)
	postEnd := anchorIdx + limit + 1
	if postEnd > len(all) {
		postEnd = len(all)
	}
	result.Post = append([]model.LogRecord{}, all[anchorIdx+1:postEnd]...)

	return result, nil
}

// Methods aggregates the method chart over the whole collection.
func (v *View) Methods() model.MethodStatistics { return AggregateMethods(v.table.rows) }

// Directions aggregates tcp/udp directions over the whole collection.
func (v *View) Directions() model.DirectionStatistics { return AggregateDirections(v.table.rows) }

// Summary summarizes the whole collection.
func (v *View) Summary() Summary { return Summarize(v.table.rows) }

// Histogram buckets the records matching query (NanoQL, may be empty).
func (v *View) Histogram(interval int64, query string) ([]HistogramPoint, error) {
	node, err := ParseNanoQL(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query syntax: %w", err)
	}
	var match func(model.LogRecord) bool
	if node != nil {
		match = func(r model.LogRecord) bool { return MatchNanoQL(node, QueryFields(r)) }
	}
	return ComputeHistogram(v.table.rows, 0, 0, interval, match)
}
