package engine

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/pkg/nanoql"
)

var (
	ErrUnknownColumn   = errors.New("engine: unknown column")
	ErrNotSortable     = errors.New("engine: column is not sortable")
	ErrNotHideable     = errors.New("engine: column cannot be hidden")
	ErrUnknownRow      = errors.New("engine: unknown row id")
	ErrUnknownAction   = errors.New("engine: unknown row action")
	ErrDuplicateAction = errors.New("engine: duplicate row action")
)

// Row is anything with a stable unique id.
type Row interface {
	RowID() string
}

// SortDirection of the active sort column.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return "none"
	}
}

// ParseSortDirection accepts "asc", "desc" or "none".
func ParseSortDirection(s string) (SortDirection, error) {
	switch s {
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	case "", "none":
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("invalid sort direction %q", s)
}

// Filter is the active column filter. An empty Value matches everything.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// State is a snapshot of the table view.
type State struct {
	SortColumn       string          `json:"sort_column"`
	SortDirection    SortDirection   `json:"sort_direction"`
	ColumnVisibility map[string]bool `json:"column_visibility"`
	SelectedIDs      []string        `json:"selected_ids"`
	Filter           Filter          `json:"filter"`
	Query            string          `json:"query"`
	Page             int             `json:"page"`
	PageSize         int             `json:"page_size"`
}

// Action is a row-level operation supplied by the caller.
// The table never performs side effects itself: when a destructive action
// returns nil the row is dropped from the working view.
type Action struct {
	Name        string
	Destructive bool
	Run         func(id string) error
}

// TableOption configures NewTable.
type TableOption func(*tableConfig)

type tableConfig struct {
	defaultColumn string
	pageSize      int
	logger        *zap.Logger
}

// WithDefaultColumn makes id the filter column and the initial ascending sort.
func WithDefaultColumn(id string) TableOption {
	return func(c *tableConfig) { c.defaultColumn = id }
}

// WithPageSize sets rows per page. Zero or less disables paging.
func WithPageSize(n int) TableOption {
	return func(c *tableConfig) { c.pageSize = n }
}

// WithLogger sets the table logger.
func WithLogger(l *zap.Logger) TableOption {
	return func(c *tableConfig) { c.logger = l }
}

// Table is a sortable, filterable, selectable view over rows.
// A Table is owned by one goroutine.
type Table[R Row] struct {
	cfg tableConfig

	rows     []R
	index    map[string]int
	cols     []Column[R]
	colIndex map[string]int

	sortCol  string
	sortDir  SortDirection
	hidden   map[string]bool
	selected map[string]struct{}
	filter   Filter
	query    string
	node     nanoql.Node
	page     int

	actions map[string]Action
	fields  func(R) nanoql.Record
}

// NewTable validates row ids and column ids and applies opts.
func NewTable[R Row](rows []R, cols []Column[R], opts ...TableOption) (*Table[R], error) {
	cfg := tableConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	t := &Table[R]{
		cfg:      cfg,
		cols:     cols,
		colIndex: make(map[string]int, len(cols)),
		actions:  make(map[string]Action),
	}
	for i, c := range cols {
		if _, dup := t.colIndex[c.ID()]; dup {
			return nil, fmt.Errorf("engine: column %q declared twice", c.ID())
		}
		t.colIndex[c.ID()] = i
	}
	if cfg.defaultColumn != "" {
		if _, ok := t.colIndex[cfg.defaultColumn]; !ok {
			return nil, fmt.Errorf("%w: default %q", ErrUnknownColumn, cfg.defaultColumn)
		}
	}

	if err := t.Replace(rows); err != nil {
		return nil, err
	}
	return t, nil
}

func indexRows[R Row](rows []R) (map[string]int, error) {
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		id := r.RowID()
		if _, dup := index[id]; dup {
			return nil, model.DuplicateRowID(id)
		}
		index[id] = i
	}
	return index, nil
}

// Replace swaps the row collection and resets the view state.
// On a duplicate id the table is left unchanged.
func (t *Table[R]) Replace(rows []R) error {
	index, err := indexRows(rows)
	if err != nil {
		return err
	}
	t.rows = append([]R(nil), rows...)
	t.index = index
	t.reset()
	return nil
}

func (t *Table[R]) reset() {
	t.hidden = make(map[string]bool)
	t.selected = make(map[string]struct{})
	t.query, t.node = "", nil
	t.page = 0
	t.filter = Filter{Column: t.cfg.defaultColumn}
	t.sortCol, t.sortDir = "", SortNone
	if id := t.cfg.defaultColumn; id != "" && t.cols[t.colIndex[id]].Sortable() {
		t.sortCol, t.sortDir = id, SortAsc
	}
}

func (t *Table[R]) column(id string) (Column[R], error) {
	i, ok := t.colIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	return t.cols[i], nil
}

// Columns returns every column, hidden or not.
func (t *Table[R]) Columns() []Column[R] { return t.cols }

// Len is the number of rows in the working view, before filtering.
func (t *Table[R]) Len() int { return len(t.rows) }

// Rows returns a copy of the working collection in row order.
func (t *Table[R]) Rows() []R { return append([]R(nil), t.rows...) }

// Row looks a row up by id.
func (t *Table[R]) Row(id string) (R, bool) {
	i, ok := t.index[id]
	if !ok {
		var zero R
		return zero, false
	}
	return t.rows[i], true
}

// SetSort cycles the sort on col: none, asc, desc, none.
// Switching to another column starts at asc.
func (t *Table[R]) SetSort(col string) error {
	c, err := t.column(col)
	if err != nil {
		return err
	}
	if !c.Sortable() {
		return fmt.Errorf("%w: %q", ErrNotSortable, col)
	}

	if t.sortCol != col {
		t.sortCol, t.sortDir = col, SortAsc
	} else {
		switch t.sortDir {
		case SortNone:
			t.sortDir = SortAsc
		case SortAsc:
			t.sortDir = SortDesc
		default:
			t.sortCol, t.sortDir = "", SortNone
		}
	}
	t.page = 0
	return nil
}

// SetSortDirection sets the sort explicitly. SortNone clears it.
func (t *Table[R]) SetSortDirection(col string, dir SortDirection) error {
	if dir == SortNone {
		t.sortCol, t.sortDir = "", SortNone
		t.page = 0
		return nil
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	if !c.Sortable() {
		return fmt.Errorf("%w: %q", ErrNotSortable, col)
	}
	t.sortCol, t.sortDir = col, dir
	t.page = 0
	return nil
}

// SetFilter filters rows on one column. An empty value clears the filter
// but keeps col as the filter column.
func (t *Table[R]) SetFilter(col, value string) error {
	if _, err := t.column(col); err != nil {
		return err
	}
	t.filter = Filter{Column: col, Value: value}
	t.page = 0
	return nil
}

// SetQuery installs a NanoQL predicate ANDed with the column filter.
func (t *Table[R]) SetQuery(query string) error {
	node, err := ParseNanoQL(query)
	if err != nil {
		return fmt.Errorf("invalid query syntax: %w", err)
	}
	t.query, t.node = query, node
	t.page = 0
	return nil
}

// SetQueryFields overrides how rows expose fields to NanoQL.
// By default every column is a field holding its rendered text.
func (t *Table[R]) SetQueryFields(fn func(R) nanoql.Record) {
	t.fields = fn
}

// ToggleColumn flips the visibility of a column.
func (t *Table[R]) ToggleColumn(id string) error {
	c, err := t.column(id)
	if err != nil {
		return err
	}
	if !c.Hideable() {
		return fmt.Errorf("%w: %q", ErrNotHideable, id)
	}
	t.hidden[id] = !t.hidden[id]
	return nil
}

// VisibleColumns returns the columns that are not hidden, in declared order.
func (t *Table[R]) VisibleColumns() []Column[R] {
	out := make([]Column[R], 0, len(t.cols))
	for _, c := range t.cols {
		if !t.hidden[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// ToggleSelect flips the selection of one row.
func (t *Table[R]) ToggleSelect(id string) error {
	if _, ok := t.index[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}
	if _, ok := t.selected[id]; ok {
		delete(t.selected, id)
	} else {
		t.selected[id] = struct{}{}
	}
	return nil
}

// SelectAll selects every row passing the current filter and query.
func (t *Table[R]) SelectAll() {
	for _, r := range t.filtered() {
		t.selected[r.RowID()] = struct{}{}
	}
}

// ClearSelection deselects all rows.
func (t *Table[R]) ClearSelection() {
	t.selected = make(map[string]struct{})
}

// IsSelected reports whether id is selected.
func (t *Table[R]) IsSelected(id string) bool {
	_, ok := t.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in row order.
func (t *Table[R]) SelectedIDs() []string {
	out := make([]string, 0, len(t.selected))
	for _, r := range t.rows {
		if _, ok := t.selected[r.RowID()]; ok {
			out = append(out, r.RowID())
		}
	}
	return out
}

// RegisterAction adds a named row action.
func (t *Table[R]) RegisterAction(a Action) error {
	if a.Name == "" || a.Run == nil {
		return fmt.Errorf("row action needs a name and a Run function")
	}
	if _, dup := t.actions[a.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, a.Name)
	}
	t.actions[a.Name] = a
	return nil
}

// Invoke runs action name on row id. A destructive action that succeeds
// removes the row from the view and from the selection.
func (t *Table[R]) Invoke(name, id string) error {
	a, ok := t.actions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	i, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}
	if err := a.Run(id); err != nil {
		return fmt.Errorf("action %s on %s: %w", name, id, err)
	}
	if !a.Destructive {
		return nil
	}

	t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
	t.index, _ = indexRows(t.rows)
	delete(t.selected, id)
	if pc := t.PageCount(); t.page >= pc {
		t.page = pc - 1
	}
	t.cfg.logger.Debug("row removed by action", zap.String("action", name), zap.String("id", id))
	return nil
}

func (t *Table[R]) filtered() []R {
	var col Column[R]
	if t.filter.Value != "" {
		col, _ = t.column(t.filter.Column)
	}
	if col == nil && t.node == nil {
		return append([]R(nil), t.rows...)
	}

	out := make([]R, 0, len(t.rows))
	for _, r := range t.rows {
		if col != nil && !matchCell(col, r, t.filter.Value) {
			continue
		}
		if t.node != nil && !MatchNanoQL(t.node, t.recordFields(r)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GetVisibleRows returns the filtered rows in sort order.
// Hidden columns do not affect which rows are visible.
func (t *Table[R]) GetVisibleRows() []R {
	rows := t.filtered()
	if t.sortDir == SortNone || t.sortCol == "" {
		return rows
	}
	col, err := t.column(t.sortCol)
	if err != nil {
		return rows
	}

	keys := make(map[string]SortKey, len(rows))
	for _, r := range rows {
		keys[r.RowID()] = col.Key(r)
	}
	desc := t.sortDir == SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		c := keys[rows[i].RowID()].Compare(keys[rows[j].RowID()])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return rows
}

// PageCount is at least 1.
func (t *Table[R]) PageCount() int {
	n := len(t.filtered())
	if t.cfg.pageSize <= 0 || n == 0 {
		return 1
	}
	return (n + t.cfg.pageSize - 1) / t.cfg.pageSize
}

// SetPage moves to page n (0-based), clamped to the available pages.
func (t *Table[R]) SetPage(n int) {
	if pc := t.PageCount(); n >= pc {
		n = pc - 1
	}
	if n < 0 {
		n = 0
	}
	t.page = n
}

// Page is the current 0-based page.
func (t *Table[R]) Page() int { return t.page }

// PageRows returns the visible rows on the current page.
func (t *Table[R]) PageRows() []R {
	rows := t.GetVisibleRows()
	if t.cfg.pageSize <= 0 {
		return rows
	}
	start := t.page * t.cfg.pageSize
	if start >= len(rows) {
		return []R{}
	}
	end := start + t.cfg.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// State snapshots the view state.
func (t *Table[R]) State() State {
	vis := make(map[string]bool, len(t.cols))
	for _, c := range t.cols {
		vis[c.ID()] = !t.hidden[c.ID()]
	}
	return State{
		SortColumn:       t.sortCol,
		SortDirection:    t.sortDir,
		ColumnVisibility: vis,
		SelectedIDs:      t.SelectedIDs(),
		Filter:           t.filter,
		Query:            t.query,
		Page:             t.page,
		PageSize:         t.cfg.pageSize,
	}
}
