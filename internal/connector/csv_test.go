package connector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVImport_MapsAliasedColumns(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "contacts.csv",
		"Full_Name,E-Mail,Mobile,Notes\n"+
			"Jo Smith,jo@example.com,(614) 555-0101,looking to buy a house\n"+
			"Pat Lee,pat@example.com,,open house visitor\n")

	c := &CSVConnector{}
	result, err := c.Import(path)
	require.NoError(t, err)

	require.Equal(t, 2, result.Count())
	first := result.Contacts[0]
	assert.Equal(t, "csv", first.Source)
	assert.Equal(t, "Jo Smith", first.Name)
	assert.Equal(t, "jo@example.com", first.Email)
	assert.Equal(t, "(614) 555-0101", first.Phone)
	assert.Equal(t, "looking to buy a house", first.Notes)
	assert.Equal(t, "looking to buy a house", first.RawData["notes"])
}

func TestCSVImport_SkipsRowsWithoutIdentity(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "contacts.csv",
		"name,email,notes\n"+
			",,just a note with nobody attached\n"+
			"Jo Smith,,\n")

	c := &CSVConnector{}
	result, err := c.Import(path)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count())
	assert.Equal(t, "Jo Smith", result.Contacts[0].Name)
}

func TestCSVImport_HandlesBOMAndSemicolons(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "export.csv",
		"\xEF\xBB\xBFname;email;phone\n"+
			"Jo Smith;jo@example.com;6145550101\n")

	c := &CSVConnector{}
	result, err := c.Import(path)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count())
	assert.Equal(t, "Jo Smith", result.Contacts[0].Name)
	assert.Equal(t, "jo@example.com", result.Contacts[0].Email)
}

func TestCSVImport_UnmappableHeaderWarns(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "odd.csv", "colA,colB\nx,y\n")

	c := &CSVConnector{}
	result, err := c.Import(path)
	require.NoError(t, err)
	assert.Zero(t, result.Count())
	assert.NotEmpty(t, result.Warnings)
}

func TestCSVImport_MissingFile(t *testing.T) {
	t.Parallel()

	c := &CSVConnector{}
	_, err := c.Import(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestForSource(t *testing.T) {
	t.Parallel()

	for _, source := range Sources() {
		c, err := ForSource(source)
		require.NoError(t, err)
		assert.Equal(t, source, c.Source())
	}

	_, err := ForSource("carrier-pigeon")
	require.Error(t, err)
}
