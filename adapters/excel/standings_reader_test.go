package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"synthcap/adapters/naming"
	"synthcap/domain/panel"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "standings.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRecordsFromCSV(t *testing.T) {
	path := writeCSV(t, `team,season,points
McLaren,2019,145
Renault,2019,91
Haas F1 Team,2019,28
`)

	reader := NewStandingsReader(path, naming.NewConstructorMapping())
	records, unknown, err := reader.LoadRecords(context.Background())
	require.NoError(t, err)

	assert.Empty(t, unknown)
	assert.ElementsMatch(t, []panel.Record{
		{Unit: "MCLAREN", Period: 2019, Value: 145},
		{Unit: "ALPINE", Period: 2019, Value: 91},
		{Unit: "HAAS", Period: 2019, Value: 28},
	}, records)
}

func TestLoadRecordsCollectsUnknownNamesSorted(t *testing.T) {
	path := writeCSV(t, `team,season,points
Minardi,2019,3
McLaren,2019,145
Brabham,2019,0
`)

	reader := NewStandingsReader(path, naming.NewConstructorMapping())
	records, unknown, err := reader.LoadRecords(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Brabham", "Minardi"}, unknown)

	// Unknown names still produce records under the uppercase fallback.
	assert.Contains(t, records, panel.Record{Unit: "MINARDI", Period: 2019, Value: 3})
}

func TestLoadRecordsHeaderOrderIndependent(t *testing.T) {
	path := writeCSV(t, `Points,Team,Season
145,McLaren,2019
`)

	reader := NewStandingsReader(path, naming.NewConstructorMapping())
	records, _, err := reader.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, panel.Record{Unit: "MCLAREN", Period: 2019, Value: 145}, records[0])
}

func TestLoadRecordsRejectsBadHeader(t *testing.T) {
	path := writeCSV(t, `constructor,year,score
McLaren,2019,145
`)

	_, _, err := NewStandingsReader(path, naming.NewConstructorMapping()).LoadRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestLoadRecordsRejectsMalformedValues(t *testing.T) {
	badSeason := writeCSV(t, "team,season,points\nMcLaren,nineteen,145\n")
	_, _, err := NewStandingsReader(badSeason, naming.NewConstructorMapping()).LoadRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid season")

	badPoints := writeCSV(t, "team,season,points\nMcLaren,2019,many\n")
	_, _, err = NewStandingsReader(badPoints, naming.NewConstructorMapping()).LoadRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid points")
}

func TestLoadRecordsSkipsBlankRows(t *testing.T) {
	path := writeCSV(t, "team,season,points\nMcLaren,2019,145\n,,\nWilliams,2019,1\n")

	records, _, err := NewStandingsReader(path, naming.NewConstructorMapping()).LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadRecordsMissingFile(t *testing.T) {
	reader := NewStandingsReader(filepath.Join(t.TempDir(), "absent.csv"), naming.NewConstructorMapping())
	_, _, err := reader.LoadRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadRecordsFromWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standings.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Team", "Season", "Points"},
		{"McLaren", 2019, 145},
		{"Alfa Romeo", 2019, 57},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, unknown, err := NewStandingsReader(path, naming.NewConstructorMapping()).LoadRecords(context.Background())
	require.NoError(t, err)

	assert.Empty(t, unknown)
	assert.ElementsMatch(t, []panel.Record{
		{Unit: "MCLAREN", Period: 2019, Value: 145},
		{Unit: "SAUBER", Period: 2019, Value: 57},
	}, records)
}

func TestLoadRecordsHonorsContext(t *testing.T) {
	path := writeCSV(t, "team,season,points\nMcLaren,2019,145\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewStandingsReader(path, naming.NewConstructorMapping()).LoadRecords(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
