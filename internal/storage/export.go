package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Rows [][]float64 `json:"rows"`
}

// Export writes a run's metadata and rows as one indented JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	t, err := s.LoadRows(runID)
	if err != nil {
		return err
	}

	data := ExportData{RunMetadata: *meta, Rows: t.Rows}
	if data.Rows == nil {
		data.Rows = [][]float64{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Store) ExportFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Export(file, runID); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
