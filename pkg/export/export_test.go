package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Sites / Work Status",
		Headers: []string{"File No", "Site", "Work Status"},
		Rows: []map[string]string{
			{"File No": "GWD/12/2024", "Site": "Borewell-12", "Work Status": "Work in Progress"},
			{"File No": "GWD/13/2024", "Site": "Pond-3"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"File No", "Site", "Work Status"}, records[0])
	assert.Equal(t, []string{"GWD/13/2024", "Pond-3", ""}, records[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Sites  Work Status"
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Borewell-12", rows[1][1])
	assert.Equal(t, "Work in Progress", rows[1][2])
}

func TestSheetNameStripsInvalidCharacters(t *testing.T) {
	assert.Equal(t, "Pending Updates 2024", sheetName("Pending Updates [2024]"))
	assert.Len(t, []rune(sheetName("A very long workbook title that exceeds the limit")), 31)
}
