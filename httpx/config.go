// Package httpx binds requests, renders responses and exposes the auth routes
package httpx

// ErrorLoggingConfig controls how HandleError logs failures
type ErrorLoggingConfig struct {
	Enable bool `mapstructure:"enable"`

	// Statuses in this list are not logged, e.g. 401 on every bad login
	IgnoreHTTPStatus []int `mapstructure:"ignore_http_status"`

	// FullErrorChain adds the wrapped cause chain to the log entry
	FullErrorChain bool `mapstructure:"full_error_chain"`

	// LogLevel is error, warn or info
	LogLevel string `mapstructure:"log_level"`
}

func DefaultErrorLoggingConfig() ErrorLoggingConfig {
	return ErrorLoggingConfig{
		Enable:           true,
		IgnoreHTTPStatus: []int{400, 401, 404, 409, 422},
		FullErrorChain:   true,
		LogLevel:         "warn",
	}
}
