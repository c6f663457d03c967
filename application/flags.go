package application

import "github.com/spf13/pflag"

// AppFlags are command line overrides. Zero values leave the file and
// environment values untouched.
type AppFlags struct {
	ConfigDir string `config:"-"`
	Host      string `config:"server.host"`
	Port      int    `config:"server.port"`
	Mode      string `config:"server.mode"`
	LogLevel  string `config:"logger.level"`
}

// Bind registers the flags on fs
func (f *AppFlags) Bind(fs *pflag.FlagSet, defaultConfigDir string) {
	fs.StringVarP(&f.ConfigDir, "config-dir", "c", defaultConfigDir, "directory holding config.yaml and <env>.yaml")
	fs.StringVar(&f.Host, "host", "", "listen host, overrides server.host")
	fs.IntVarP(&f.Port, "port", "p", 0, "listen port, overrides server.port")
	fs.StringVar(&f.Mode, "mode", "", "gin mode: debug, release or test")
	fs.StringVar(&f.LogLevel, "log-level", "", "overrides logger.level")
}
