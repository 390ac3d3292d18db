package timeline

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns a case-insensitive Czech collator. Collators keep
// internal buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Czech, collate.IgnoreCase)
}

// CompareNames orders two labels the way a Czech reader expects ("Ábel" before "Zebra").
func CompareNames(a, b string) int {
	return newCollator().CompareString(a, b)
}

func sortRows(rows []Row, cfg Sort) {
	col := newCollator()
	desc := cfg.Direction == Desc
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var c int
		switch cfg.Key {
		case SortStartDate:
			c = a.sortStart.Compare(b.sortStart)
		case SortStatus:
			c = col.CompareString(a.sortStatus, b.sortStatus)
		}
		if c == 0 {
			c = col.CompareString(a.Label, b.Label)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}
