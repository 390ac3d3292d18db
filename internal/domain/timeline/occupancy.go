package timeline

import "time"

type CellBar struct {
	Bar
	ShowLabel bool `json:"showLabel"`
}

type Cell struct {
	Day  time.Time `json:"day"`
	Bars []CellBar `json:"bars"`
}

type GridRow struct {
	RowID string `json:"rowId"`
	Cells []Cell `json:"cells"`
}

// ActiveBars returns every bar covering day, in input order. Overlapping bars
// stack; none are dropped.
func ActiveBars(bars []Bar, day time.Time) []Bar {
	day = Date(day)
	active := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		if !day.Before(Date(bar.Start)) && !day.After(Date(bar.End)) {
			active = append(active, bar)
		}
	}
	return active
}

// DayGrid lays the rows out day by day over the window. A bar's label is
// carried only on its first visible day: its start date, or the window's
// first day for bars that began earlier.
func DayGrid(rows []Row, w Window) []GridRow {
	days := w.Days()
	grid := make([]GridRow, 0, len(rows))
	for _, row := range rows {
		cells := make([]Cell, 0, len(days))
		for _, day := range days {
			active := ActiveBars(row.Bars, day)
			cellBars := make([]CellBar, 0, len(active))
			for _, bar := range active {
				first := Date(bar.Start)
				if first.Before(w.Start) {
					first = w.Start
				}
				cellBars = append(cellBars, CellBar{Bar: bar, ShowLabel: day.Equal(first)})
			}
			cells = append(cells, Cell{Day: day, Bars: cellBars})
		}
		grid = append(grid, GridRow{RowID: row.ID, Cells: cells})
	}
	return grid
}
