package excel

import "fmeagraph/internal/config"

// ExcelConfig holds the sheet layout used to map cells onto FMEA rows
type ExcelConfig struct {
	HeaderRows int                     `json:"header_rows"`
	Columns    [config.ColumnCount]int `json:"columns"`
}

// DefaultExcelConfig returns the layout of the standard FMEA template: one
// header row, fields in the first eight columns
func DefaultExcelConfig() ExcelConfig {
	return FromIngestionConfig(config.DefaultIngestionConfig())
}

// FromIngestionConfig adapts the application ingestion settings
func FromIngestionConfig(cfg config.IngestionConfig) ExcelConfig {
	return ExcelConfig{HeaderRows: cfg.HeaderRows, Columns: cfg.Columns}
}
