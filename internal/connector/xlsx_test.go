package connector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTempXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	require.NoError(t, err)

	for _, row := range rows {
		r := sheet.AddRow()
		for _, val := range row {
			r.AddCell().Value = val
		}
	}

	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXImport(t *testing.T) {
	t.Parallel()

	path := writeTempXLSX(t, [][]string{
		{"Name", "Email", "Phone", "Comments"},
		{"Jo Smith", "jo@example.com", "614-555-0101", "ready to sell our house"},
		{"", "", "", "no identity here"},
	})

	c := &XLSXConnector{}
	result, err := c.Import(path)
	require.NoError(t, err)

	require.Equal(t, 1, result.Count())
	contact := result.Contacts[0]
	assert.Equal(t, "xlsx", contact.Source)
	assert.Equal(t, "Jo Smith", contact.Name)
	assert.Equal(t, "ready to sell our house", contact.Notes)
}

func TestXLSXImport_NamedSheet(t *testing.T) {
	t.Parallel()

	path := writeTempXLSX(t, [][]string{
		{"name"},
		{"Jo Smith"},
	})

	found := &XLSXConnector{SheetName: "Contacts"}
	result, err := found.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count())

	missing := &XLSXConnector{SheetName: "Nope"}
	_, err = missing.Import(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
