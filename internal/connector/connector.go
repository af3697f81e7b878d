// Package connector parses lead sources into raw contacts. Each connector
// handles one source format: CSV contact lists, XLSX spreadsheets, and the
// Instagram and Facebook data-export archives.
package connector

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// Connector imports raw contacts from a file or directory path.
//
// A returned error means the import could not run at all (missing file, bad
// archive). Recoverable row-level problems are reported as warnings on the
// result instead, so one bad row never sinks an import.
type Connector interface {
	Source() string
	Import(path string) (*ImportResult, error)
}

// ImportResult is the outcome of one connector run.
type ImportResult struct {
	Source   string             `json:"source"`
	Contacts []model.RawContact `json:"contacts"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Count returns the number of contacts parsed.
func (r *ImportResult) Count() int {
	return len(r.Contacts)
}

func (r *ImportResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ForSource returns the connector registered for a source name.
func ForSource(source string) (Connector, error) {
	switch source {
	case "csv":
		return &CSVConnector{}, nil
	case "xlsx":
		return &XLSXConnector{}, nil
	case "instagram":
		return &InstagramConnector{}, nil
	case "facebook":
		return &FacebookConnector{}, nil
	}
	return nil, eris.Errorf("connector: unknown source %q", source)
}

// Sources lists the registered source names.
func Sources() []string {
	return []string{"csv", "xlsx", "instagram", "facebook"}
}

func checkPath(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "connector: stat %s", path)
	}
	return info, nil
}
