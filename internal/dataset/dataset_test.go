package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verifactura/invoice-extractor/internal/common"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "Marca,Tipo,Total,Categoria\nFORD,JEEP,20000,LIVIANO\nHINO,CAMION,60000,PESADO\n")

	frame, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"marca", "tipo", "total", "categoria"}, frame.Columns)
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, []string{"FORD", "JEEP", "20000", "LIVIANO"}, frame.Rows[0])
}

func TestLoadCSV_SkipsBlankLinesAndPadsShortRows(t *testing.T) {
	path := writeCSV(t, "marca,total\nFORD,20000\n,\nHINO\n")

	frame, err := Load(path)
	require.NoError(t, err)
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, []string{"HINO", ""}, frame.Rows[1])
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Marca", "Total", "Categoria"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"FORD", 20000, "LIVIANO"}))
	require.NoError(t, f.SaveAs(path))

	frame, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"marca", "total", "categoria"}, frame.Columns)
	require.Len(t, frame.Rows, 1)
	assert.Equal(t, "FORD", frame.Rows[0][0])
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("data.parquet")
	require.Error(t, err)
	assert.Equal(t, common.KindDatasetSchemaInvalid, common.KindOf(err))
}

func TestLoad_EmptyDataset(t *testing.T) {
	path := writeCSV(t, "")
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, common.KindDatasetSchemaInvalid, common.KindOf(err))

	path = writeCSV(t, "marca,total\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Equal(t, common.KindDatasetSchemaInvalid, common.KindOf(err))
}

func TestRequireColumns(t *testing.T) {
	frame := &Frame{Columns: []string{"marca", "total"}}

	assert.NoError(t, frame.RequireColumns("marca", "total"))

	err := frame.RequireColumns("marca", "tipo", "categoria")
	require.Error(t, err)
	assert.Equal(t, common.KindDatasetSchemaInvalid, common.KindOf(err))
	assert.Contains(t, err.Error(), "tipo")
	assert.Contains(t, err.Error(), "categoria")
}
