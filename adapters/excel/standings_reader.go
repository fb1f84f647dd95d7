// Package excel loads championship standings records from spreadsheet or
// CSV files into performance records for the panel builder. This is the
// only place raw organization names appear; everything downstream of the
// reader sees canonical unit keys.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/ports"
)

// Expected header columns, case-insensitive.
const (
	columnTeam   = "team"
	columnSeason = "season"
	columnPoints = "points"
)

// StandingsReader reads (team, season, points) rows from an .xlsx or .csv
// file and canonicalizes team names through the injected resolver. It
// implements ports.RecordSourcePort.
type StandingsReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	resolver ports.NameResolverPort
}

var _ ports.RecordSourcePort = (*StandingsReader)(nil)

// NewStandingsReader creates a reader for the given file. The file type is
// inferred from the extension; .xlsx files are read from Sheet1.
func NewStandingsReader(filePath string, resolver ports.NameResolverPort) *StandingsReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &StandingsReader{
		filePath: filePath,
		fileType: fileType,
		sheet:    "Sheet1",
		resolver: resolver,
	}
}

// LoadRecords reads the file, canonicalizes team names, and returns the
// performance records plus any raw names the mapping did not recognize.
func (r *StandingsReader) LoadRecords(ctx context.Context) ([]panel.Record, []string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("standings file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("standings file must have a header row and at least one data row")
	}

	return r.parseRows(ctx, rows)
}

func (r *StandingsReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open standings workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	return rows, nil
}

func (r *StandingsReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open standings CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse standings CSV: %w", err)
	}
	return rows, nil
}

func (r *StandingsReader) parseRows(ctx context.Context, rows [][]string) ([]panel.Record, []string, error) {
	teamIdx, seasonIdx, pointsIdx, err := locateColumns(rows[0])
	if err != nil {
		return nil, nil, err
	}

	records := make([]panel.Record, 0, len(rows)-1)
	unknownSet := make(map[string]struct{})
	for lineNo, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if isBlankRow(row) {
			continue
		}
		if len(row) <= teamIdx || len(row) <= seasonIdx || len(row) <= pointsIdx {
			return nil, nil, fmt.Errorf("row %d: too few columns", lineNo+2)
		}

		rawName := strings.TrimSpace(row[teamIdx])
		canonical, known := r.resolver.Resolve(rawName)
		if !known {
			unknownSet[rawName] = struct{}{}
		}

		season, err := strconv.Atoi(strings.TrimSpace(row[seasonIdx]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: invalid season %q: %w", lineNo+2, row[seasonIdx], err)
		}
		points, err := strconv.ParseFloat(strings.TrimSpace(row[pointsIdx]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: invalid points %q: %w", lineNo+2, row[pointsIdx], err)
		}

		records = append(records, panel.Record{
			Unit:   core.UnitKey(canonical),
			Period: core.Period(season),
			Value:  points,
		})
	}

	unknown := make([]string, 0, len(unknownSet))
	for name := range unknownSet {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)
	return records, unknown, nil
}

func locateColumns(header []string) (teamIdx, seasonIdx, pointsIdx int, err error) {
	teamIdx, seasonIdx, pointsIdx = -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case columnTeam:
			teamIdx = i
		case columnSeason:
			seasonIdx = i
		case columnPoints:
			pointsIdx = i
		}
	}
	if teamIdx < 0 || seasonIdx < 0 || pointsIdx < 0 {
		return 0, 0, 0, fmt.Errorf("standings header must contain %q, %q and %q columns", columnTeam, columnSeason, columnPoints)
	}
	return teamIdx, seasonIdx, pointsIdx, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
