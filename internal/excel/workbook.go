// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package excel

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	apperrors "excelsearch/internal/errors"
)

// SheetInfo describes one worksheet in a workbook summary.
type SheetInfo struct {
	Name        string `json:"name"`
	Index       int    `json:"index"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
	HasData     bool   `json:"hasData"`
}

// Summary is the workbook-level summary payload.
type Summary struct {
	FilePath        string      `json:"filePath"`
	FileName        string      `json:"fileName"`
	FileSize        int64       `json:"fileSize"`
	FileFormat      string      `json:"fileFormat"`
	Worksheets      []SheetInfo `json:"worksheets"`
	TotalWorksheets int         `json:"totalWorksheets"`
	CreatedAt       time.Time   `json:"createdAt"`
	ModifiedAt      time.Time   `json:"modifiedAt"`
}

// SheetData is the tabular payload returned by read_data.
type SheetData struct {
	FilePath       string            `json:"filePath"`
	WorksheetName  string            `json:"worksheetName"`
	Headers        []string          `json:"headers"`
	Rows           [][]any           `json:"rows"`
	RowCount       int               `json:"rowCount"`
	ColumnCount    int               `json:"columnCount"`
	DataTypes      map[string]string `json:"dataTypes"`
	MaxRowsApplied int               `json:"maxRowsApplied,omitempty"`
}

// Match is one search hit. Row is 1-based over data rows; CellAddress is the
// real A1 address including the header row offset.
type Match struct {
	Row         int    `json:"row"`
	Column      string `json:"column"`
	ColumnIndex int    `json:"columnIndex"`
	CellAddress string `json:"cellAddress"`
	Value       string `json:"value"`
}

// SearchResult is the payload returned by search.
type SearchResult struct {
	FilePath      string  `json:"filePath"`
	WorksheetName string  `json:"worksheetName"`
	SearchTerm    string  `json:"searchTerm"`
	CaseSensitive bool    `json:"caseSensitive"`
	TotalMatches  int     `json:"totalMatches"`
	Matches       []Match `json:"matches"`
}

// DataRange bounds the populated cells of a worksheet.
type DataRange struct {
	StartRow    int    `json:"startRow"`
	EndRow      int    `json:"endRow"`
	StartColumn string `json:"startColumn"`
	EndColumn   string `json:"endColumn"`
}

// SheetDetail extends SheetInfo with range and header information.
type SheetDetail struct {
	SheetInfo
	DataRange   *DataRange `json:"dataRange"`
	Headers     []string   `json:"headers"`
	HeaderCount int        `json:"headerCount"`
}

// SheetsSummary is the payload returned by worksheet_summary.
type SheetsSummary struct {
	FilePath        string        `json:"filePath"`
	FileName        string        `json:"fileName"`
	Worksheets      []SheetDetail `json:"worksheets"`
	TotalWorksheets int           `json:"totalWorksheets"`
}

// Reader performs read-only workbook operations. Every path is routed
// through the validator before the collaborator touches it; collaborator
// failures surface as opaque parse-error messages.
type Reader struct {
	validator *Validator
	log       zerolog.Logger
}

// NewReader creates a workbook reader guarded by validator.
func NewReader(validator *Validator, log zerolog.Logger) *Reader {
	return &Reader{validator: validator, log: log}
}

// Validator exposes the per-file validator, for callers that only need the
// checks.
func (r *Reader) Validator() *Validator {
	return r.validator
}

func (r *Reader) open(path string) (*excelize.File, string, error) {
	resolved, err := r.validator.ValidateFile(path)
	if err != nil {
		return nil, "", err
	}
	f, err := excelize.OpenFile(resolved)
	if err != nil {
		r.log.Error().Str("file", resolved).Err(err).Msg("failed to open workbook")
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, "cannot open workbook", err)
	}
	return f, resolved, nil
}

// Summary returns worksheet names, sizes and file metadata for one workbook.
func (r *Reader) Summary(path string) (*Summary, error) {
	f, resolved, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets, err := r.sheetInfos(f)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeFileNotFound, "file does not exist: %s", path)
	}

	return &Summary{
		FilePath:        resolved,
		FileName:        filepath.Base(resolved),
		FileSize:        info.Size(),
		FileFormat:      strings.ToLower(filepath.Ext(resolved)),
		Worksheets:      sheets,
		TotalWorksheets: len(sheets),
		CreatedAt:       info.ModTime(),
		ModifiedAt:      info.ModTime(),
	}, nil
}

// ReadData reads one worksheet as headers plus JSON-safe rows. An empty
// sheet name selects the first worksheet. maxRows <= 0 reads everything;
// otherwise at most maxRows data rows are returned.
func (r *Reader) ReadData(path, sheet string, maxRows int) (*SheetData, error) {
	f, resolved, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, rows, err := r.sheetRows(f, sheet)
	if err != nil {
		return nil, err
	}

	data := &SheetData{
		FilePath:      resolved,
		WorksheetName: sheet,
		Headers:       []string{},
		Rows:          [][]any{},
		DataTypes:     map[string]string{},
	}

	if len(rows) > 0 {
		data.Headers = headerNames(rows[0])
		raw := rows[1:]
		if maxRows > 0 && len(raw) > maxRows {
			raw = raw[:maxRows]
			data.MaxRowsApplied = maxRows
		}
		for _, row := range raw {
			data.Rows = append(data.Rows, normalizeRow(row, len(data.Headers)))
		}
		data.DataTypes = inferColumnTypes(data.Headers, raw)
	}

	data.RowCount = len(data.Rows)
	data.ColumnCount = len(data.Headers)
	return data, nil
}

// Search scans one worksheet for cells containing term. Header cells name
// the columns; matching is substring-based, case folding controlled by
// caseSensitive.
func (r *Reader) Search(path, term, sheet string, caseSensitive bool) (*SearchResult, error) {
	f, resolved, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, rows, err := r.sheetRows(f, sheet)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		FilePath:      resolved,
		WorksheetName: sheet,
		SearchTerm:    term,
		CaseSensitive: caseSensitive,
		Matches:       []Match{},
	}

	needle := term
	if !caseSensitive {
		needle = strings.ToLower(term)
	}

	var headers []string
	if len(rows) > 0 {
		headers = headerNames(rows[0])
	}

	for rowIdx, row := range rows {
		if rowIdx == 0 {
			continue
		}
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			haystack := value
			if !caseSensitive {
				haystack = strings.ToLower(value)
			}
			if !strings.Contains(haystack, needle) {
				continue
			}
			addr, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				continue
			}
			result.Matches = append(result.Matches, Match{
				Row:         rowIdx,
				Column:      columnName(headers, colIdx),
				ColumnIndex: colIdx,
				CellAddress: addr,
				Value:       value,
			})
		}
	}

	result.TotalMatches = len(result.Matches)
	return result, nil
}

// SheetsSummary reports per-worksheet structure: dimensions, populated data
// range and first-row headers.
func (r *Reader) SheetsSummary(path string) (*SheetsSummary, error) {
	f, resolved, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	summary := &SheetsSummary{
		FilePath:   resolved,
		FileName:   filepath.Base(resolved),
		Worksheets: []SheetDetail{},
	}

	for idx, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, "cannot read worksheet", err)
		}

		detail := SheetDetail{
			SheetInfo: sheetInfo(name, idx, rows),
			Headers:   []string{},
		}
		if len(rows) > 0 {
			for _, cell := range rows[0] {
				if cell != "" {
					detail.Headers = append(detail.Headers, cell)
				}
			}
		}
		detail.HeaderCount = len(detail.Headers)
		detail.DataRange = dataRange(rows)

		summary.Worksheets = append(summary.Worksheets, detail)
	}

	summary.TotalWorksheets = len(summary.Worksheets)
	return summary, nil
}

func (r *Reader) sheetInfos(f *excelize.File) ([]SheetInfo, error) {
	infos := []SheetInfo{}
	for idx, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, "cannot read worksheet", err)
		}
		infos = append(infos, sheetInfo(name, idx, rows))
	}
	return infos, nil
}

// sheetRows resolves the requested sheet name (first sheet when empty) and
// returns its formatted rows.
func (r *Reader) sheetRows(f *excelize.File, sheet string) (string, [][]string, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", nil, apperrors.New(apperrors.CodeValidation, "workbook contains no worksheets")
	}
	if sheet == "" {
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.CodeValidation, "cannot read worksheet", err)
	}
	return sheet, rows, nil
}

func sheetInfo(name string, idx int, rows [][]string) SheetInfo {
	info := SheetInfo{
		Name:     name,
		Index:    idx,
		RowCount: len(rows),
	}
	for _, row := range rows {
		if len(row) > info.ColumnCount {
			info.ColumnCount = len(row)
		}
	}
	info.HasData = info.RowCount > 1 || info.ColumnCount > 1
	return info
}

// headerNames names the columns after the first row, falling back to the
// column letter for blank header cells.
func headerNames(first []string) []string {
	headers := make([]string, len(first))
	for i, cell := range first {
		if cell == "" {
			if letter, err := excelize.ColumnNumberToName(i + 1); err == nil {
				cell = letter
			}
		}
		headers[i] = cell
	}
	return headers
}

func columnName(headers []string, colIdx int) string {
	if colIdx < len(headers) && headers[colIdx] != "" {
		return headers[colIdx]
	}
	letter, err := excelize.ColumnNumberToName(colIdx + 1)
	if err != nil {
		return ""
	}
	return letter
}

// dataRange finds the bounding box of populated cells, nil when the sheet
// holds no values.
func dataRange(rows [][]string) *DataRange {
	minRow, minCol := 0, 0
	maxRow, maxCol := 0, 0
	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			r, c := rowIdx+1, colIdx+1
			if minRow == 0 || r < minRow {
				minRow = r
			}
			if minCol == 0 || c < minCol {
				minCol = c
			}
			if r > maxRow {
				maxRow = r
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}
	if minRow == 0 {
		return nil
	}

	startCol, err := excelize.ColumnNumberToName(minCol)
	if err != nil {
		return nil
	}
	endCol, err := excelize.ColumnNumberToName(maxCol)
	if err != nil {
		return nil
	}
	return &DataRange{
		StartRow:    minRow,
		EndRow:      maxRow,
		StartColumn: startCol,
		EndColumn:   endCol,
	}
}
