package connector

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXConnector imports leads from spreadsheets, sharing the CSV connector's
// column mapping. The first sheet is read; row one must be a header.
type XLSXConnector struct {
	// SheetName selects a sheet by name; empty means the first sheet.
	SheetName string
}

func (c *XLSXConnector) Source() string { return "xlsx" }

func (c *XLSXConnector) Import(path string) (*ImportResult, error) {
	if _, err := checkPath(path); err != nil {
		return nil, err
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := c.sheet(f)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Source: c.Source()}
	if len(sheet.Rows) == 0 {
		result.warnf("sheet %q is empty", sheet.Name)
		return result, nil
	}

	colIdx := mapColumns(rowToStrings(sheet.Rows[0]))
	if len(colIdx) == 0 {
		result.warnf("no recognizable columns in header row")
	}

	for _, row := range sheet.Rows[1:] {
		contact := rowToContact(rowToStrings(row), colIdx, c.Source())
		if contact == nil {
			continue
		}
		contact.ImportedAt = time.Now().UTC()
		result.Contacts = append(result.Contacts, *contact)
	}

	if len(result.Contacts) == 0 {
		result.warnf("no valid leads found")
	}
	return result, nil
}

func (c *XLSXConnector) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if c.SheetName != "" {
		sheet, ok := f.Sheet[c.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", c.SheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = strings.TrimSpace(cell.String())
	}
	return cells
}
