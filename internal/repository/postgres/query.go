package postgres

import (
	"fmt"
	"strings"

	"github.com/flexprice/ledger/internal/types"
)

// whereClause accumulates positional predicates for hand written list queries
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends ORDER BY, LIMIT and OFFSET for a query filter
func (w *whereClause) page(f *types.QueryFilter) string {
	order := "DESC"
	if f.GetOrder() == types.OrderAsc {
		order = "ASC"
	}
	w.args = append(w.args, f.GetLimit(), f.GetOffset())
	return fmt.Sprintf(" ORDER BY id %s LIMIT $%d OFFSET $%d", order, len(w.args)-1, len(w.args))
}
