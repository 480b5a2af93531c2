package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/procdock/procdock/internal/common/logger"
)

var _ Store = (*YAMLStore)(nil)

// YAMLStore keeps settings as a flat string map backed by a YAML file.
type YAMLStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
	logger *logger.Logger
}

// NewYAMLStore loads the settings file at path. A missing file yields an
// empty store; the file is created on the first Save. A leading ~/ expands
// to the user's home directory.
func NewYAMLStore(path string, log *logger.Logger) (*YAMLStore, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}

	s := &YAMLStore{
		path:   expanded,
		values: make(map[string]string),
		logger: log.WithFields(zap.String("component", "settings-store")),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// expandPath expands a leading ~/ to the user's home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func (s *YAMLStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}
	s.values = values
	return nil
}

// Get returns the value for key and whether it was present.
func (s *YAMLStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Set stores a value in memory.
func (s *YAMLStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a key.
func (s *YAMLStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// All returns a copy of every stored key-value pair.
func (s *YAMLStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Save writes the current state to the settings file, creating parent
// directories as needed.
func (s *YAMLStore) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	s.logger.Debug("settings saved", zap.String("path", s.path), zap.Int("keys", len(s.values)))
	return nil
}
