package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var ErrRaggedTable = errors.New("storage: row length does not match columns")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one saved evaluation, validation or scan.
type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	System    string             `json:"system"`
	Timestamp time.Time          `json:"timestamp"`
	Params    map[string]float64 `json:"params,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	Columns   []string           `json:"columns,omitempty"`
}

// Table is the per-row payload written to rows.csv.
type Table struct {
	Columns []string
	Rows    [][]float64
}

func (t Table) check() error {
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d values, %d columns", ErrRaggedTable, i, len(r), len(t.Columns))
		}
	}
	return nil
}

func (s *Store) Save(kind, system string, params, metrics map[string]float64, table Table) (string, error) {
	if err := table.check(); err != nil {
		return "", err
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", kind, system, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Kind:      kind,
		System:    system,
		Timestamp: now,
		Params:    params,
		Metrics:   metrics,
		Columns:   table.Columns,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if len(table.Columns) == 0 {
		return runID, nil
	}

	csvPath := filepath.Join(runDir, "rows.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(table.Columns); err != nil {
		return "", err
	}
	for _, r := range table.Rows {
		row := make([]string, len(r))
		for j, v := range r {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadRows reads rows.csv. A run saved without columns has an empty table.
func (s *Store) LoadRows(runID string) (Table, error) {
	csvPath := filepath.Join(s.baseDir, runID, "rows.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			if _, merr := s.Load(runID); merr == nil {
				return Table{}, nil
			}
		}
		return Table{}, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	t := Table{Columns: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Table{}, fmt.Errorf("storage: %s row %d column %s: %w", runID, i, t.Columns[j], err)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
