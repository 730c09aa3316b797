package invoice

import (
	"fmt"
	"time"
)

// Sequence is the monthly counter invoice numbers are drawn from
type Sequence struct {
	YearMonth string    `db:"year_month"`
	LastValue int64     `db:"last_value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SequenceYearMonth returns the YYYYMM key of the sequence for t
func SequenceYearMonth(t time.Time) string {
	return t.UTC().Format("200601")
}

// FormatNumber renders an invoice number from a sequence key and value
func FormatNumber(yearMonth string, value int64) string {
	return fmt.Sprintf("INV-%s-%05d", yearMonth, value)
}
