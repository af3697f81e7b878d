package connector

import (
	"archive/zip"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Instagram and Facebook "download your data" exports share a layout: a zip
// archive (or the extracted folder) of JSON files. These helpers let both
// connectors walk either form uniformly.

type exportFile struct {
	name string
	open func() (io.ReadCloser, error)
}

// listExport enumerates the JSON files of an export archive or folder.
// The returned cleanup must be called when done.
func listExport(path string) ([]exportFile, func() error, error) {
	info, err := checkPath(path)
	if err != nil {
		return nil, nil, err
	}

	if info.IsDir() {
		files, err := listExportDir(path)
		return files, func() error { return nil }, err
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return listExportZip(path)
	}
	return nil, nil, eris.Errorf("connector: expected a .zip export or extracted folder, got %s", path)
}

func listExportDir(root string) ([]exportFile, error) {
	var files []exportFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".json") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, exportFile{
			name: filepath.ToSlash(rel),
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "connector: walk export folder %s", root)
	}
	return files, nil
}

func listExportZip(path string) ([]exportFile, func() error, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "connector: open export zip %s", path)
	}

	var files []exportFile
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(zf.Name), ".json") {
			continue
		}
		zf := zf
		files = append(files, exportFile{
			name: zf.Name,
			open: func() (io.ReadCloser, error) { return zf.Open() },
		})
	}
	return files, zr.Close, nil
}

// findJSON decodes the first export file matching any candidate path suffix.
// Returns (nil, "") when none match or none decode.
func findJSON(files []exportFile, candidates ...string) (any, string) {
	for _, cand := range candidates {
		for _, f := range files {
			if !strings.HasSuffix(f.name, cand) && !strings.Contains(f.name, cand) {
				continue
			}
			if data, err := decodeJSON(f); err == nil {
				return data, f.name
			}
		}
	}
	return nil, ""
}

// messageThreads decodes every message file in the export. A thread file is
// any JSON whose name mentions messages; Facebook exports additionally nest
// them under inbox/.
func messageThreads(files []exportFile, requireInbox bool) []map[string]any {
	var threads []map[string]any
	for _, f := range files {
		lower := strings.ToLower(f.name)
		if !strings.Contains(lower, "message") {
			continue
		}
		if requireInbox && !strings.Contains(lower, "inbox") {
			continue
		}
		data, err := decodeJSON(f)
		if err != nil {
			continue
		}
		thread, ok := data.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := thread["messages"]; !ok {
			continue
		}
		threads = append(threads, thread)
	}
	return threads
}

func decodeJSON(f exportFile) (any, error) {
	rc, err := f.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var data any
	if err := json.NewDecoder(rc).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// fixMojibake repairs Meta's export encoding, which serializes UTF-8 bytes as
// individually escaped Latin-1 code points. Strings that don't fit that shape
// pass through unchanged.
func fixMojibake(s string) string {
	if s == "" {
		return s
	}
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		b = append(b, byte(r))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return s
}

// asList extracts a list from an export document, which may be the list
// itself or an object wrapping it under one of the given keys.
func asList(data any, keys ...string) []any {
	switch t := data.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range keys {
			if list, ok := t[key].([]any); ok {
				return list
			}
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
