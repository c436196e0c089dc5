// Package config provides configuration management for the RTL converter application.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"rtl-converter/internal/logger"
	"rtl-converter/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "rtl-converter-config.json"
	// EnvGeminiAPIKey is the environment variable name for the Gemini API key
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	// DefaultBaseURL is the base URL of the Gemini generateContent endpoint family
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	// DefaultTargetLanguage is the default translation target (BCP 47)
	DefaultTargetLanguage = "ar"
	// DefaultFontFamily is the default font family applied to translated text
	DefaultFontFamily = "Noto Sans Arabic"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in the user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "rtl-converter", DefaultConfigFileName)
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		GeminiAPIKey:   "",
		GeminiBaseURL:  DefaultBaseURL,
		TargetLanguage: DefaultTargetLanguage,
		FontFamily:     DefaultFontFamily,
		FontDirs:       nil,
		LogLevel:       "info",
	}
}

// DefaultFontDirs returns the platform's conventional font directories.
func DefaultFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	case "windows":
		dirs := []string{`C:\Windows\Fonts`}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	default:
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		}
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values.
// The environment variable takes over for the API key if the stored value is empty.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.GeminiAPIKey)),
				logger.String("targetLanguage", config.TargetLanguage),
				logger.String("fontFamily", config.FontFamily))
			m.config = config
		}
	}

	// Apply defaults for empty fields
	if m.config.GeminiBaseURL == "" {
		m.config.GeminiBaseURL = DefaultBaseURL
	}
	if m.config.TargetLanguage == "" {
		m.config.TargetLanguage = DefaultTargetLanguage
	}
	if m.config.FontFamily == "" {
		m.config.FontFamily = DefaultFontFamily
	}
	if m.config.LogLevel == "" {
		m.config.LogLevel = "info"
	}

	return nil
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetAPIKey returns the Gemini API key.
// It first checks the config file value, then falls back to the environment variable.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.GeminiAPIKey != "" {
		return m.config.GeminiAPIKey
	}
	return os.Getenv(EnvGeminiAPIKey)
}

// SetAPIKey sets the Gemini API key and saves the configuration.
func (m *ConfigManager) SetAPIKey(key string) error {
	logger.Info("setting API key")
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.GeminiAPIKey = key
	return m.Save()
}

// GetBaseURL returns the Gemini endpoint base URL.
func (m *ConfigManager) GetBaseURL() string {
	if m.config != nil && m.config.GeminiBaseURL != "" {
		return m.config.GeminiBaseURL
	}
	return DefaultBaseURL
}

// GetTargetLanguage returns the configured target language code.
func (m *ConfigManager) GetTargetLanguage() string {
	if m.config != nil && m.config.TargetLanguage != "" {
		return m.config.TargetLanguage
	}
	return DefaultTargetLanguage
}

// GetFontFamily returns the configured target font family.
func (m *ConfigManager) GetFontFamily() string {
	if m.config != nil && m.config.FontFamily != "" {
		return m.config.FontFamily
	}
	return DefaultFontFamily
}

// GetFontDirs returns the font directories to scan, falling back to the
// platform defaults when none are configured.
func (m *ConfigManager) GetFontDirs() []string {
	if m.config != nil && len(m.config.FontDirs) > 0 {
		return m.config.FontDirs
	}
	return DefaultFontDirs()
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}
