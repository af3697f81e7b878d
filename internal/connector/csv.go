package connector

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// CSVConnector imports leads from CSV files: manual contact lists, CRM
// exports, open-house sign-in sheets.
type CSVConnector struct{}

func (c *CSVConnector) Source() string { return "csv" }

// columnAliases maps canonical contact fields to the header spellings seen in
// the wild. Matching is case-insensitive on trimmed headers.
var columnAliases = map[string][]string{
	"name":      {"name", "full_name", "fullname", "contact_name", "contact"},
	"email":     {"email", "email_address", "e-mail", "emailaddress"},
	"phone":     {"phone", "phone_number", "phonenumber", "mobile", "cell", "telephone"},
	"notes":     {"notes", "note", "comments", "comment", "description", "bio", "about"},
	"source_id": {"id", "source_id", "contact_id", "lead_id"},
	"username":  {"username", "user_name", "handle", "social_handle"},
}

func (c *CSVConnector) Import(path string) (*ImportResult, error) {
	if _, err := checkPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	return c.parse(f)
}

func (c *CSVConnector) parse(r io.Reader) (*ImportResult, error) {
	result := &ImportResult{Source: c.Source()}

	br := bufio.NewReader(r)
	stripBOM(br)

	firstLine, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, eris.Wrap(err, "csv: read header")
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(firstLine))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: file is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header row")
	}

	colIdx := mapColumns(header)
	if len(colIdx) == 0 {
		result.warnf("no recognizable columns in header: %v", header)
	}

	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.warnf("row %d: %v", rowNum, err)
			continue
		}

		contact := rowToContact(record, colIdx, c.Source())
		if contact == nil {
			continue
		}
		result.Contacts = append(result.Contacts, *contact)
	}

	if len(result.Contacts) == 0 {
		result.warnf("no valid leads found")
	}
	return result, nil
}

// mapColumns resolves each canonical field to its column index, if present.
func mapColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	colIdx := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				colIdx[field] = i
				break
			}
		}
	}
	return colIdx
}

// rowToContact builds a contact from one spreadsheet row. Rows with no
// identifying field at all are skipped.
func rowToContact(record []string, colIdx map[string]int, source string) *model.RawContact {
	get := func(field string) string {
		i, ok := colIdx[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	contact := &model.RawContact{
		Source:     source,
		SourceID:   get("source_id"),
		Name:       get("name"),
		Email:      get("email"),
		Phone:      get("phone"),
		Username:   get("username"),
		Notes:      get("notes"),
		ImportedAt: time.Now().UTC(),
	}
	if contact.Name == "" && contact.Email == "" && contact.Phone == "" && contact.Username == "" {
		return nil
	}

	raw := make(map[string]any, len(colIdx))
	for field, i := range colIdx {
		if i < len(record) && record[i] != "" {
			raw[field] = record[i]
		}
	}
	contact.RawData = raw
	return contact
}

// sniffDelimiter picks the delimiter that appears most in the header line.
func sniffDelimiter(line string) rune {
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best := ','
	bestCount := strings.Count(line, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// stripBOM discards a UTF-8 byte order mark, common in Excel CSV exports.
func stripBOM(br *bufio.Reader) {
	bom, err := br.Peek(3)
	if err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3) //nolint:errcheck
	}
}
