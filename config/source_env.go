package config

import (
	"os"
	"strings"
)

// EnvSource maps PREFIX_A_B=v to a.b. Keys whose segments contain an
// underscore (session.single_session) need an explicit Bind.
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // config key -> env var
}

func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority, bindings: make(map[string]string)}
}

// Bind maps key to PREFIX_KEY_WITH_DOTS_AS_UNDERSCORES
func (s *EnvSource) Bind(keys ...string) {
	for _, key := range keys {
		env := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if s.prefix != "" {
			env = s.prefix + "_" + env
		}
		s.bindings[key] = env
	}
}

func (s *EnvSource) Name() string { return "env:" + s.prefix }

func (s *EnvSource) Priority() int { return s.priority }

func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.prefix == "" && len(s.bindings) == 0 {
		return result, nil
	}

	if s.prefix != "" {
		prefix := s.prefix + "_"
		bound := make(map[string]bool, len(s.bindings))
		for _, env := range s.bindings {
			bound[env] = true
		}
		for _, kv := range os.Environ() {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(name, prefix) || bound[name] {
				continue
			}
			key := strings.ToLower(strings.TrimPrefix(name, prefix))
			result[strings.ReplaceAll(key, "_", ".")] = value
		}
	}

	for key, env := range s.bindings {
		if value, ok := os.LookupEnv(env); ok && value != "" {
			result[key] = value
		}
	}
	return result, nil
}
