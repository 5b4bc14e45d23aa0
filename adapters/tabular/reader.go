package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"flureport/domain/core"
	"flureport/domain/dataset"
	"flureport/domain/stats"
	"flureport/ports"

	"github.com/xuri/excelize/v2"
)

// Reader loads the encounter table from CSV or Excel files and validates
// the eight analysis columns at the point of load, so everything
// downstream can assume complete, typed data.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

var _ ports.TableReaderPort = (*Reader)(nil)

// NewReader creates a reader for the given path; the extension selects the
// decoder.
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// ReadTable loads and validates the encounter table.
func (r *Reader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	log.Printf("[TableReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	return buildTable(rows)
}

func (r *Reader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	readStart := time.Now()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[TableReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	readStart := time.Now()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[TableReader] Sheet1 read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// buildTable projects the raw rows onto the analysis columns, parsing
// BodyTemp as numeric and the symptom indicators as Yes/No levels.
// Missing columns, unparsable cells, and blank cells fail fast.
func buildTable(rows [][]string) (*dataset.Table, error) {
	headers := make([]string, len(rows[0]))
	colIndex := map[string]int{}
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
		colIndex[headers[i]] = i
	}

	wanted := append([]string{dataset.ColBodyTemp, dataset.ColNausea}, dataset.SymptomColumns...)
	for _, col := range wanted {
		if _, ok := colIndex[col]; !ok {
			return nil, core.NewColumnMissingError(col)
		}
	}

	dataRows := rows[1:]
	numRows := len(dataRows)

	bodyTemp := make([]float64, 0, numRows)
	binary := map[string][]stats.Level{}
	binaryCols := append([]string{dataset.ColNausea}, dataset.SymptomColumns...)
	for _, col := range binaryCols {
		binary[col] = make([]stats.Level, 0, numRows)
	}

	for rowNum, row := range dataRows {
		cell, err := cellAt(row, colIndex[dataset.ColBodyTemp], dataset.ColBodyTemp, rowNum)
		if err != nil {
			return nil, err
		}
		temp, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, core.NewColumnTypeError(dataset.ColBodyTemp, "numeric")
		}
		bodyTemp = append(bodyTemp, temp)

		for _, col := range binaryCols {
			cell, err := cellAt(row, colIndex[col], col, rowNum)
			if err != nil {
				return nil, err
			}
			switch stats.Level(cell) {
			case stats.LevelYes, stats.LevelNo:
				binary[col] = append(binary[col], stats.Level(cell))
			default:
				return nil, core.NewBadCategoryError(col, cell, rowNum)
			}
		}
	}

	// Keep the analysis columns in input-file order.
	columns := make([]string, 0, len(wanted))
	for _, header := range headers {
		for _, col := range wanted {
			if header == col {
				columns = append(columns, col)
			}
		}
	}

	table, err := dataset.NewTable(columns,
		map[string][]float64{dataset.ColBodyTemp: bodyTemp},
		binary, numRows)
	if err != nil {
		return nil, err
	}

	log.Printf("[TableReader] Table loaded (%d columns, %d rows)", len(columns), numRows)
	return table, nil
}

func cellAt(row []string, idx int, col string, rowNum int) (string, error) {
	if idx >= len(row) {
		return "", core.NewMissingValueError(col, rowNum)
	}
	cell := strings.TrimSpace(row[idx])
	if cell == "" || cell == "NA" {
		return "", core.NewMissingValueError(col, rowNum)
	}
	return cell, nil
}
