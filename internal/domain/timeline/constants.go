package timeline

import (
	"time"

	"crewplan/internal/domain/core"
)

const (
	SortName      = "name"
	SortStartDate = "start_date"
	SortStatus    = "status"
)

var statusColors = map[core.ProjectStatus]string{
	core.ProjectPreparing:  "#f59e0b",
	core.ProjectInProgress: "#3b82f6",
	core.ProjectCompleted:  "#10b981",
	core.ProjectPaused:     "#6b7280",
}

const unknownStatusColor = "#9ca3af"

// StatusColor returns the bar color for a project status.
func StatusColor(status core.ProjectStatus) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return unknownStatusColor
}

// Nominative Czech month names. Kept as a table so output never depends on
// the host locale.
var czechMonths = [12]string{
	"Leden",
	"Únor",
	"Březen",
	"Duben",
	"Květen",
	"Červen",
	"Červenec",
	"Srpen",
	"Září",
	"Říjen",
	"Listopad",
	"Prosinec",
}

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return czechMonths[m-1]
}
