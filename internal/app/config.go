package app

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// TaskFile is an explicit task-file path. When empty, the file is
	// discovered by walking upward from the working directory.
	TaskFile string

	// ContinueOnError makes sequences run every step instead of stopping
	// at the first failure.
	ContinueOnError bool

	// Output selects the sink for command output: stream, prefix, or
	// buffer.
	Output string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Output == "" {
		cfg.Output = "prefix"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	return &cfg, nil
}
