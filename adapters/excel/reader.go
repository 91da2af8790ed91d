package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fmeagraph/domain/core"
	"fmeagraph/internal"
	"fmeagraph/internal/ingestion"

	"github.com/xuri/excelize/v2"
)

// File types understood by the reader
const (
	FileTypeXLSX = "xlsx"
	FileTypeCSV  = "csv"
)

// DataReader handles reading FMEA workbooks and CSV exports
type DataReader struct {
	filePath string
	fileType string
	config   ExcelConfig
	logger   *internal.Logger
}

// DetectFileType returns csv for .csv paths and xlsx otherwise
func DetectFileType(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// NewDataReader creates a reader for an .xlsx or .csv file
func NewDataReader(filePath string, config ExcelConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.Discard
	}
	return &DataReader{
		filePath: filePath,
		fileType: DetectFileType(filePath),
		config:   config,
		logger:   logger.With("DataReader"),
	}
}

// ReadData reads every dataset in the file
func (r *DataReader) ReadData() (*Workbook, error) {
	r.logger.Info("reading %s file: %s", r.fileType, r.filePath)

	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
		}
		return nil, fmt.Errorf("failed to open %s file: %w", r.fileType, err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	wb, err := readWorkbook(file, r.fileType, name, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	wb.Source = r.filePath
	return wb, nil
}

// ReadWorkbook reads an uploaded file. name labels the CSV dataset; sheets
// keep their own names.
func ReadWorkbook(src io.Reader, fileType, name string, config ExcelConfig, logger *internal.Logger) (*Workbook, error) {
	if logger == nil {
		logger = internal.Discard
	}
	wb, err := readWorkbook(src, fileType, name, config, logger.With("DataReader"))
	if err != nil {
		return nil, err
	}
	wb.Source = name
	return wb, nil
}

func readWorkbook(src io.Reader, fileType, name string, config ExcelConfig, logger *internal.Logger) (*Workbook, error) {
	switch fileType {
	case FileTypeXLSX:
		return readExcelData(src, config, logger)
	case FileTypeCSV:
		return readCSVData(src, name, config, logger)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

// readExcelData turns every sheet, in workbook order, into one dataset
func readExcelData(src io.Reader, config ExcelConfig, logger *internal.Logger) (*Workbook, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	names := make([]string, 0, len(sheets))
	raw := make([][]string, 0, len(sheets))
	datasets := make([]ingestion.Dataset, 0, len(sheets))

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		datasets = append(datasets, ingestion.Dataset{Name: sheet, Rows: mapRows(rows, config)})
		names = append(names, sheet)
		raw = append(raw, flatten(rows))
		logger.Debug("sheet %s: %d rows", sheet, len(rows))
	}

	logger.Info("Excel file read in %.2fms (%d sheets)", float64(time.Since(startTime).Nanoseconds())/1e6, len(sheets))
	return &Workbook{
		Datasets:    datasets,
		Fingerprint: core.ComputeDatasetFingerprint(names, raw),
	}, nil
}

// readCSVData reads a CSV export as a single dataset
func readCSVData(src io.Reader, name string, config ExcelConfig, logger *internal.Logger) (*Workbook, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	logger.Info("CSV file read (%d rows)", len(rows))

	return &Workbook{
		Datasets:    []ingestion.Dataset{{Name: name, Rows: mapRows(rows, config)}},
		Fingerprint: core.ComputeDatasetFingerprint([]string{name}, [][]string{flatten(rows)}),
	}, nil
}

// mapRows drops header rows and picks the configured columns of each row
func mapRows(rows [][]string, config ExcelConfig) []ingestion.Row {
	if config.HeaderRows >= len(rows) {
		return nil
	}
	out := make([]ingestion.Row, 0, len(rows)-config.HeaderRows)
	for _, row := range rows[config.HeaderRows:] {
		values := make([]string, len(config.Columns))
		for i, col := range config.Columns {
			if col < len(row) {
				values[i] = row[col]
			}
		}
		out = append(out, ingestion.RowFromStrings(values...))
	}
	return out
}

func flatten(rows [][]string) []string {
	var cells []string
	for _, row := range rows {
		cells = append(cells, row...)
		cells = append(cells, "\n")
	}
	return cells
}
