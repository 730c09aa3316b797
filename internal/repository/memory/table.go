package memory

import (
	"sort"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
)

// record is a versioned ledger row held by a table
type record[R any] interface {
	id() int64
	setID(id int64)
	version() int64
	setVersion(v int64)
	live() bool
	clone() R
}

// table holds the committed rows of one aggregate. Callers hold Store.mu.
type table[R record[R]] struct {
	name   string
	rows   map[int64]R
	nextID int64
}

func newTable[R record[R]](name string) *table[R] {
	return &table[R]{
		name: name,
		rows: make(map[int64]R),
	}
}

func (t *table[R]) key(id int64) string {
	return rowKey(t.name, id)
}

// get returns a copy of the row as seen by tx, staged writes first
func (t *table[R]) get(x *tx, id int64) (R, bool) {
	if x != nil {
		if w, ok := x.writes[t.key(id)]; ok {
			r := w.row.(R)
			return r.clone(), r.live()
		}
	}
	r, ok := t.rows[id]
	if !ok {
		var zero R
		return zero, false
	}
	return r.clone(), r.live()
}

// all returns copies of every row as seen by tx, ordered by id. Soft
// deleted rows are included so callers can filter on status.
func (t *table[R]) all(x *tx) []R {
	merged := make(map[int64]R, len(t.rows))
	for id, r := range t.rows {
		merged[id] = r
	}
	if x != nil {
		for _, key := range x.order {
			if r, ok := x.writes[key].row.(R); ok {
				merged[r.id()] = r
			}
		}
	}

	out := make([]R, 0, len(merged))
	for _, r := range merged {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out
}

func (t *table[R]) insert(x *tx, r R) {
	t.nextID++
	id := t.nextID
	r.setID(id)
	r.setVersion(1)

	row := r.clone()
	if x == nil {
		t.rows[id] = row
		return
	}
	x.stage(t.key(id), &write{
		row:     row,
		expect:  -1,
		current: func() (int64, bool) { return 0, false },
		apply:   func() { t.rows[id] = row },
	})
}

// update writes r if its version matches the row seen by tx, then bumps the
// version on both r and the stored copy
func (t *table[R]) update(x *tx, r R) error {
	cur, ok := t.get(x, r.id())
	if !ok {
		return ierr.NewError(t.name+" not found").
			WithHintf("The %s was not found", t.name).
			Mark(ierr.ErrNotFound)
	}
	if cur.version() != r.version() {
		return ierr.NewError(t.name+" version conflict").
			WithHintf("The %s was modified concurrently", t.name).
			WithReportableDetails(map[string]any{
				"id":       r.id(),
				"expected": r.version(),
				"found":    cur.version(),
			}).
			Mark(ierr.ErrVersionConflict)
	}

	r.setVersion(r.version() + 1)
	row := r.clone()
	id := r.id()

	if x == nil {
		t.rows[id] = row
		return nil
	}

	expect := int64(-1)
	if committed, ok := t.rows[id]; ok {
		expect = committed.version()
	}
	x.stage(t.key(id), &write{
		row:    row,
		expect: expect,
		current: func() (int64, bool) {
			c, ok := t.rows[id]
			if !ok {
				return 0, false
			}
			return c.version(), true
		},
		apply: func() { t.rows[id] = row },
	})
	return nil
}

// page applies limit and offset of a query filter
func page[R any](rows []R, f *types.QueryFilter) []R {
	if f.GetOrder() == types.OrderDesc {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	start := f.GetOffset()
	if start >= len(rows) {
		return []R{}
	}
	end := start + f.GetLimit()
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
