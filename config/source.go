package config

// ConfigSource provides flat, dot-separated keys.
//
// Suggested priorities: config.yaml 10, <env>.yaml 20, environment 50,
// command-line flags 100.
type ConfigSource interface {
	Name() string
	Priority() int
	Load() (map[string]interface{}, error)
}
