// Package config merges prioritised configuration sources through viper
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader merges sources from low to high priority
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{}
	v           *viper.Viper
	loadedFiles []string
}

func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource registers a source; order is decided by Priority on Load
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load reads every source and rebuilds the viper view.
// Higher priority values override lower ones key by key.
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]interface{})
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("load source %s: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && fs.loaded {
			l.loadedFiles = append(l.loadedFiles, fs.path)
		}
		for k, v := range data {
			l.merged[strings.ToLower(k)] = v
		}
	}

	l.v = viper.New()
	for k, v := range unflatten(l.merged) {
		l.v.Set(k, v)
	}
	return nil
}

// Unmarshal decodes the merged configuration using mapstructure tags
func (l *Loader) Unmarshal(out interface{}) error {
	return l.v.Unmarshal(out)
}

// UnmarshalKey decodes a single subtree, e.g. "token"
func (l *Loader) UnmarshalKey(key string, out interface{}) error {
	return l.v.UnmarshalKey(key, out)
}

func (l *Loader) GetString(key string) string { return l.v.GetString(key) }

func (l *Loader) GetInt(key string) int { return l.v.GetInt(key) }

func (l *Loader) GetBool(key string) bool { return l.v.GetBool(key) }

func (l *Loader) IsSet(key string) bool { return l.v.IsSet(key) }

// GetLoadedFiles lists files that existed and were read
func (l *Loader) GetLoadedFiles() []string {
	return append([]string(nil), l.loadedFiles...)
}

// unflatten turns {"a.b": 1} into {"a": {"b": 1}}
func unflatten(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range flat {
		parts := strings.Split(key, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = value
	}
	return out
}

// flatten is the inverse of unflatten
func flatten(prefix string, data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
