package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// SnapshotFormat identifies the snapshot document layout written by this package
const SnapshotFormat = "site-progress/v2"

// legacyKeyPrefix prefixes grid entries of the bare-map snapshot layout
// ("df_101동_실내기").
const legacyKeyPrefix = "df_"

// ErrCorruptSnapshot is returned when a snapshot document cannot be parsed
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

type snapshotDocument struct {
	Format  string                  `json:"format"`
	SavedAt time.Time               `json:"saved_at"`
	Grids   map[string]gridDocument `json:"grids"`
}

type gridDocument struct {
	Building string     `json:"building"`
	Process  string     `json:"process"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
}

// EncodeSnapshot renders a snapshot as the current document format
func EncodeSnapshot(s *progress.Snapshot) ([]byte, error) {
	doc := snapshotDocument{
		Format:  SnapshotFormat,
		SavedAt: s.SavedAt.UTC(),
		Grids:   make(map[string]gridDocument, len(s.Tables)),
	}
	for key, table := range s.Tables {
		doc.Grids[key.String()] = gridDocument{
			Building: key.Building.String(),
			Process:  string(key.Process),
			Columns:  table.Columns,
			Rows:     table.Rows,
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses the current document format and the legacy bare map
// of "df_<building>_<process>" entries holding pandas "split" or "records"
// tables. Entries that cannot be attributed to a grid are listed in Skipped.
func DecodeSnapshot(data []byte) (*progress.Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if _, ok := top["format"]; ok {
		return decodeDocument(data)
	}
	return decodeLegacy(top)
}

func decodeDocument(data []byte) (*progress.Snapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Format != SnapshotFormat {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrCorruptSnapshot, doc.Format)
	}

	snapshot := progress.NewSnapshot(doc.SavedAt)
	for name, grid := range doc.Grids {
		key, err := documentKey(name, grid)
		if err != nil {
			snapshot.Skipped = append(snapshot.Skipped, name)
			continue
		}
		snapshot.Tables[key] = progress.StoredTable{Columns: grid.Columns, Rows: grid.Rows}
	}
	return snapshot, nil
}

func documentKey(name string, grid gridDocument) (progress.GridKey, error) {
	if grid.Building == "" || grid.Process == "" {
		return progress.ParseGridKey(name)
	}
	b, err := progress.ParseBuilding(grid.Building)
	if err != nil {
		return progress.GridKey{}, err
	}
	p, err := progress.ParseProcess(grid.Process)
	if err != nil {
		return progress.GridKey{}, err
	}
	return progress.NewGridKey(b, p), nil
}

func decodeLegacy(top map[string]json.RawMessage) (*progress.Snapshot, error) {
	snapshot := progress.NewSnapshot(time.Time{})
	for name, raw := range top {
		key, err := legacyKey(name)
		if err != nil {
			snapshot.Skipped = append(snapshot.Skipped, name)
			continue
		}
		table, err := decodeLegacyTable(raw)
		if err != nil {
			snapshot.Skipped = append(snapshot.Skipped, name)
			continue
		}
		snapshot.Tables[key] = table
	}
	return snapshot, nil
}

// legacyKey parses "df_101동_실내기".
func legacyKey(name string) (progress.GridKey, error) {
	rest, ok := strings.CutPrefix(name, legacyKeyPrefix)
	if !ok {
		return progress.GridKey{}, fmt.Errorf("unexpected entry %q", name)
	}
	building, process, ok := strings.Cut(rest, "_")
	if !ok {
		return progress.GridKey{}, fmt.Errorf("unexpected entry %q", name)
	}
	b, err := progress.ParseBuilding(building)
	if err != nil {
		return progress.GridKey{}, err
	}
	p, err := progress.ParseProcess(process)
	if err != nil {
		return progress.GridKey{}, err
	}
	return progress.NewGridKey(b, p), nil
}

type splitTable struct {
	Columns []string            `json:"columns"`
	Data    [][]json.RawMessage `json:"data"`
}

func decodeLegacyTable(raw json.RawMessage) (progress.StoredTable, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeRecords(trimmed)
	}

	var split splitTable
	if err := json.Unmarshal(trimmed, &split); err != nil {
		return progress.StoredTable{}, err
	}
	if len(split.Columns) == 0 {
		return progress.StoredTable{}, errors.New("table has no columns")
	}
	rows := make([][]string, len(split.Data))
	for i, values := range split.Data {
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = scalarText(v)
		}
		rows[i] = row
	}
	return progress.StoredTable{Columns: split.Columns, Rows: rows}, nil
}

// decodeRecords reads a records-oriented table, keeping the column order of
// the first record.
func decodeRecords(raw []byte) (progress.StoredTable, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return progress.StoredTable{}, err
	}

	var table progress.StoredTable
	index := make(map[string]int)
	for _, rec := range records {
		keys, values, err := orderedObject(rec)
		if err != nil {
			return progress.StoredTable{}, err
		}
		if table.Columns == nil {
			table.Columns = keys
			for i, k := range keys {
				index[k] = i
			}
		}
		if len(keys) != len(table.Columns) {
			return progress.StoredTable{}, errors.New("records have differing columns")
		}
		row := make([]string, len(table.Columns))
		for i, k := range keys {
			pos, ok := index[k]
			if !ok {
				return progress.StoredTable{}, fmt.Errorf("unexpected column %q", k)
			}
			row[pos] = values[i]
		}
		table.Rows = append(table.Rows, row)
	}
	if table.Columns == nil {
		return progress.StoredTable{}, errors.New("table has no records")
	}
	return table, nil
}

// orderedObject returns the keys of a flat JSON object in document order
// with their values as text.
func orderedObject(raw []byte) ([]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("record is not an object")
	}

	var keys, values []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("record key is not a string")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, scalarText(value))
	}
	return keys, values, nil
}

// scalarText renders a JSON scalar as cell text; null becomes "".
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return n.String()
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}
