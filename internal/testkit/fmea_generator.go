// Package testkit generates synthetic FMEA worksheets for tests and demos.
package testkit

import (
	"fmt"
	"math/rand"
	"strconv"

	"fmeagraph/internal/ingestion"

	"github.com/xuri/excelize/v2"
)

// FMEAGeneratorConfig configures the worksheet generator
type FMEAGeneratorConfig struct {
	Processes       int   `json:"processes"`
	FailureModes    int   `json:"failure_modes"`
	MinCauses       int   `json:"min_causes"`
	MaxCauses       int   `json:"max_causes"`
	MaxEffects      int   `json:"max_effects"`
	MaxRating       int   `json:"max_rating"`
	BlankRatingRate int   `json:"blank_rating_rate"` // one in N ratings left empty, 0 for never
	Seed            int64 `json:"seed"`
}

// DefaultFMEAConfig returns sensible defaults: causes stay within what a
// max-entropy table supports
func DefaultFMEAConfig() FMEAGeneratorConfig {
	return FMEAGeneratorConfig{
		Processes:    3,
		FailureModes: 4,
		MinCauses:    1,
		MaxCauses:    5,
		MaxEffects:   2,
		MaxRating:    5,
		Seed:         42,
	}
}

// Header is the column titles of a generated sheet
var Header = []string{"Error", "Effect", "Severity", "Cause", "Occurrence", "Detection", "Detection rating", "Action"}

// FMEAGenerator generates deterministic FMEA worksheets
type FMEAGenerator struct {
	config FMEAGeneratorConfig
	rng    *rand.Rand
}

// NewFMEAGenerator creates a new generator
func NewFMEAGenerator(config FMEAGeneratorConfig) *FMEAGenerator {
	return &FMEAGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateSheets returns raw cell rows per process, without header
func (g *FMEAGenerator) GenerateSheets() ([]string, [][][]string) {
	names := make([]string, g.config.Processes)
	sheets := make([][][]string, g.config.Processes)
	for p := 0; p < g.config.Processes; p++ {
		names[p] = fmt.Sprintf("Process %d", p+1)
		for e := 0; e < g.config.FailureModes; e++ {
			sheets[p] = append(sheets[p], g.failureModeRows(p, e)...)
		}
	}
	return names, sheets
}

// GenerateDatasets returns the sheets as ingestion datasets
func (g *FMEAGenerator) GenerateDatasets() []ingestion.Dataset {
	names, sheets := g.GenerateSheets()
	datasets := make([]ingestion.Dataset, len(sheets))
	for i, rows := range sheets {
		datasets[i].Name = names[i]
		for _, cells := range rows {
			datasets[i].Rows = append(datasets[i].Rows, ingestion.RowFromStrings(cells...))
		}
	}
	return datasets
}

// WriteWorkbook writes the sheets, each with a header row, to path
func (g *FMEAGenerator) WriteWorkbook(path string) error {
	names, sheets := g.GenerateSheets()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		rows := append([][]string{Header}, sheets[i]...)
		for r, cells := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(cells))
			for c, v := range cells {
				values[c] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// failureModeRows lays out one failure mode: the first row names the error,
// continuation rows carry the remaining causes and effects
func (g *FMEAGenerator) failureModeRows(process, mode int) [][]string {
	causes := g.between(g.config.MinCauses, g.config.MaxCauses)
	effects := g.between(1, max(1, g.config.MaxEffects))
	n := max(causes, effects)

	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(Header))
		if i == 0 {
			row[0] = fmt.Sprintf("error %d.%d", process+1, mode+1)
			row[5] = "visual inspection"
			row[6] = g.rating()
			row[7] = fmt.Sprintf("action %d.%d", process+1, mode+1)
		}
		if i < effects {
			row[1] = fmt.Sprintf("effect %d.%d.%d", process+1, mode+1, i+1)
			row[2] = g.rating()
		}
		if i < causes {
			row[3] = fmt.Sprintf("cause %d.%d.%d", process+1, mode+1, i+1)
			row[4] = g.rating()
		}
		rows[i] = row
	}
	return rows
}

func (g *FMEAGenerator) rating() string {
	if g.config.BlankRatingRate > 0 && g.rng.Intn(g.config.BlankRatingRate) == 0 {
		return ""
	}
	return strconv.Itoa(1 + g.rng.Intn(max(1, g.config.MaxRating)))
}

func (g *FMEAGenerator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}
