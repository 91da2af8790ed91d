package ingestion

import "strings"

// Cell is one sheet value. The zero Cell is absent.
type Cell struct {
	Value   string
	Present bool
}

// Absent is the sentinel for a missing value
var Absent = Cell{}

// Text builds a cell from raw sheet text; blank text is absent
func Text(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent
	}
	return Cell{Value: s, Present: true}
}

// Row is the fixed eight-field FMEA tuple. A present Error starts a new
// failure mode; an absent Error continues the previous one.
type Row struct {
	Error           Cell
	Effect          Cell
	Severity        Cell
	Cause           Cell
	Occurrence      Cell
	Detection       Cell
	DetectionRating Cell
	Action          Cell
}

// RowFromStrings maps eight raw values onto a Row in field order. Missing
// trailing values are absent.
func RowFromStrings(values ...string) Row {
	var cells [8]Cell
	for i := 0; i < len(values) && i < len(cells); i++ {
		cells[i] = Text(values[i])
	}
	return Row{
		Error:           cells[0],
		Effect:          cells[1],
		Severity:        cells[2],
		Cause:           cells[3],
		Occurrence:      cells[4],
		Detection:       cells[5],
		DetectionRating: cells[6],
		Action:          cells[7],
	}
}

// IsBlank reports whether every field is absent
func (r Row) IsBlank() bool {
	return !r.Error.Present && !r.Effect.Present && !r.Severity.Present && !r.Cause.Present &&
		!r.Occurrence.Present && !r.Detection.Present && !r.DetectionRating.Present && !r.Action.Present
}

// Dataset is one row sequence destined for one process
type Dataset struct {
	Name string
	Rows []Row
}
