package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// FileSource reads a yaml/json/toml file. A missing file yields no keys.
type FileSource struct {
	path     string
	priority int
	loaded   bool
}

func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Priority() int { return s.priority }

func (s *FileSource) Load() (map[string]interface{}, error) {
	s.loaded = false
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("stat config file %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", s.path, err)
	}
	s.loaded = true
	return flatten("", v.AllSettings()), nil
}
