// Package settings provides local settings file management.
// Settings are stored in settings.json in the program directory.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const (
	// SettingsFileName is the name of the settings file
	SettingsFileName = "settings.json"
)

// LocalSettings represents per-machine UI state stored in the program
// directory, restored on the next launch.
type LocalSettings struct {
	LastDocument       string `json:"lastDocument"`
	LastTargetLanguage string `json:"lastTargetLanguage"`
	LastFontFamily     string `json:"lastFontFamily"`
}

// Manager manages local settings file
type Manager struct {
	filePath string
	settings *LocalSettings
	mu       sync.RWMutex
}

// NewManager creates a new settings manager
// It looks for settings.json in the program's directory
func NewManager() (*Manager, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exeDir := filepath.Dir(exePath)

	filePath := filepath.Join(exeDir, SettingsFileName)

	m := &Manager{
		filePath: filePath,
		settings: &LocalSettings{},
	}

	// Try to load existing settings
	_ = m.Load() // Ignore error if file doesn't exist

	return m, nil
}

// NewManagerWithPath creates a new settings manager with a custom path
// Useful for testing
func NewManagerWithPath(filePath string) *Manager {
	m := &Manager{
		filePath: filePath,
		settings: &LocalSettings{},
	}
	_ = m.Load()
	return m
}

// Load loads settings from the file
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use empty settings
			m.settings = &LocalSettings{}
			return nil
		}
		return err
	}

	var settings LocalSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		// Invalid JSON, use empty settings
		m.settings = &LocalSettings{}
		return err
	}

	m.settings = &settings
	return nil
}

// Save saves settings to the file
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.filePath, data, 0600)
}

// Get returns a copy of the current settings.
func (m *Manager) Get() LocalSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.settings
}

// SetLastDocument records the most recently opened document and saves.
func (m *Manager) SetLastDocument(path string) error {
	m.mu.Lock()
	m.settings.LastDocument = path
	m.mu.Unlock()

	return m.Save()
}

// SetLastConversion records the language and font family used for the
// most recent conversion and saves.
func (m *Manager) SetLastConversion(language, fontFamily string) error {
	m.mu.Lock()
	m.settings.LastTargetLanguage = language
	m.settings.LastFontFamily = fontFamily
	m.mu.Unlock()

	return m.Save()
}

// GetFilePath returns the settings file path
func (m *Manager) GetFilePath() string {
	return m.filePath
}
