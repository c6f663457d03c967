package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder assembles the standard source stack
type LoaderBuilder struct {
	configPath string
	envPrefix  string
	envKeys    []string
	flags      interface{}
}

func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath sets the directory holding config.yaml and <env>.yaml
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix enables environment overrides. keys lists config keys
// that contain underscores and therefore need explicit binding.
func (b *LoaderBuilder) WithEnvPrefix(prefix string, keys ...string) *LoaderBuilder {
	b.envPrefix = prefix
	b.envKeys = keys
	return b
}

func (b *LoaderBuilder) WithFlags(flags interface{}) *LoaderBuilder {
	b.flags = flags
	return b
}

func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()
	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, GetEnv()+".yaml"), 20))
	}
	if b.envPrefix != "" {
		env := NewEnvSource(b.envPrefix, 50)
		env.Bind(b.envKeys...)
		loader.AddSource(env)
	}
	if b.flags != nil {
		loader.AddSource(NewFlagSource(b.flags, 100))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv returns APP_ENV, then ENV, defaulting to dev
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
