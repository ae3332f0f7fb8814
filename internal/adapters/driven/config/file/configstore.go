package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ConfigStore is a TOML-backed key/value configuration store.
// Configuration is stored in a TOML file within the clinrag config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.clinrag.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".clinrag")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	// Load existing data if file exists
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value, or fallback when
// the key is absent or not a string.
func (s *ConfigStore) GetString(key, fallback string) string {
	val, ok := s.Get(key)
	if !ok {
		return fallback
	}
	str, ok := val.(string)
	if !ok {
		return fallback
	}
	return str
}

// GetInt retrieves an integer configuration value, or fallback.
func (s *ConfigStore) GetInt(key string, fallback int) int {
	val, ok := s.Get(key)
	if !ok {
		return fallback
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// GetBool retrieves a boolean configuration value, or fallback.
func (s *ConfigStore) GetBool(key string, fallback bool) bool {
	val, ok := s.Get(key)
	if !ok {
		return fallback
	}
	b, ok := val.(bool)
	if !ok {
		return fallback
	}
	return b
}

// Set stores a configuration value and persists the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return s.Save()
}

// Load reads the TOML file into memory.
func (s *ConfigStore) Load() error {
	content, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if err := toml.Unmarshal(content, &data); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Save writes the in-memory data to the TOML file.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	content, err := toml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, content, 0600)
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
