package history

import (
	"sort"

	"github.com/abacus-app/abacus/internal/model"
)

// SortNewestFirst orders records by key, descending. Keys are fixed-width
// UTC timestamps, so lexical order is chronological order.
func SortNewestFirst(records []*model.CalculationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
}
