// Package results keeps a persistent history of document conversions.
// Records live newest first in a single JSON file next to the executable.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// HistoryFileName is the history file stored next to the executable.
const HistoryFileName = "history.json"

// MaxRecords caps how many conversion records are retained.
const MaxRecords = 100

// Status represents the outcome of a conversion run.
type Status string

const (
	// StatusComplete indicates the conversion finished and the output was written.
	StatusComplete Status = "complete"
	// StatusError indicates the conversion halted before writing output.
	StatusError Status = "error"
)

// Record describes one conversion run.
type Record struct {
	ID             string    `json:"id"`
	Document       string    `json:"document"`
	PageName       string    `json:"page_name,omitempty"`
	TargetLanguage string    `json:"target_language"`
	FontFamily     string    `json:"font_family"`
	ConvertedAt    time.Time `json:"converted_at"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Translated     int       `json:"translated"`
	TotalTexts     int       `json:"total_texts"`
	Applied        int       `json:"applied"`
	FlowReversed   int       `json:"flow_reversed"`
	FixedMoved     int       `json:"fixed_moved"`
	OutputPath     string    `json:"output_path,omitempty"`
	DurationMilli  int64     `json:"duration_ms"`
}

// Manager manages conversion history persisted on disk.
type Manager struct {
	filePath string
	records  []Record
	mu       sync.RWMutex
}

// NewManager creates a manager storing history next to the executable.
func NewManager() (*Manager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return NewManagerWithPath(filepath.Join(filepath.Dir(execPath), HistoryFileName)), nil
}

// NewManagerWithPath creates a manager with a custom history file path.
// A missing or corrupt file yields an empty history.
func NewManagerWithPath(filePath string) *Manager {
	m := &Manager{filePath: filePath}
	m.load()
	return m
}

// GetFilePath returns the path of the history file.
func (m *Manager) GetFilePath() string {
	return m.filePath
}

// Add inserts a record at the front of the history and persists it.
// Missing ID and timestamp fields are filled in.
func (m *Manager) Add(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ConvertedAt.IsZero() {
		rec.ConvertedAt = time.Now()
	}
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("conv-%d", rec.ConvertedAt.UnixNano())
	}

	m.records = append([]Record{rec}, m.records...)
	if len(m.records) > MaxRecords {
		m.records = m.records[:MaxRecords]
	}

	return m.save()
}

// List returns all records, newest first.
func (m *Manager) List() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Clear removes all records and persists the empty history.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return m.save()
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.filePath)
	if err != nil {
		return
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}

	// Hand-edited files may be out of order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].ConvertedAt.After(records[j].ConvertedAt)
	})
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	m.records = records
}

func (m *Manager) save() error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(m.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
