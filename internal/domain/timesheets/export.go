package timesheets

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Výkazy"

var exportHeader = []any{"Datum", "Pracovník", "Projekt", "Hodiny", "Km řidič", "Km posádka", "Stav", "Poznámka", "Důvod zamítnutí"}

// ExportXLSX writes one row per entry. workerNames and projectNames map ids
// to display names; unknown ids are written as they are.
func ExportXLSX(w io.Writer, entries []Entry, workerNames, projectNames map[string]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "I1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "A", "I", 16); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.Date.Format("2006-01-02"),
			nameOr(workerNames, e.WorkerID),
			nameOr(projectNames, e.ProjectID),
			e.HoursWorked,
			e.DriverKilometers,
			e.CrewKilometers,
			e.Status.Label(),
			e.Notes,
			e.RejectionReason,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
