package postgres

import (
	"testing"

	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestWhereClause(t *testing.T) {
	w := &whereClause{}
	w.add("status = ?", types.StatusPublished)
	w.add("owner_id = ?", int64(7))

	assert.Equal(t, " WHERE status = $1 AND owner_id = $2", w.String())

	f := types.NewDefaultQueryFilter()
	f.Order = lo.ToPtr(types.OrderAsc)
	f.Limit = lo.ToPtr(10)
	assert.Equal(t, " ORDER BY id ASC LIMIT $3 OFFSET $4", w.page(f))
	assert.Equal(t, []interface{}{types.StatusPublished, int64(7), 10, 0}, w.args)
}

func TestWhereClauseEmpty(t *testing.T) {
	w := &whereClause{}
	assert.Equal(t, "", w.String())
	assert.Equal(t, " ORDER BY id DESC LIMIT $1 OFFSET $2", w.page(nil))
}
