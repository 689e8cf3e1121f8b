package log

import (
	"io"
	"os"
)

// SetupGlobalLogger configures the package-level writers and per-subsystem
// levels from cfg. It is safe to call more than once; the most recent call
// wins. A nil cfg resets to the default (stderr, info level).
func SetupGlobalLogger(cfg *Config, extra ...io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if cfg == nil {
		cfg = &Config{Level: "info"}
	}
	globalConfig = cfg

	writers = append([]io.Writer{os.Stderr}, extra...)

	dfl := parseLevel(cfg.Level)
	for _, sl := range allSubLoggers {
		sl.level = dfl
		if cfg.SubLoggers != nil {
			if lvl, ok := cfg.SubLoggers[sl.name]; ok {
				sl.level = parseLevel(lvl)
			}
		}
	}
}

func enabled() bool {
	if globalConfig.Enabled == nil {
		return true
	}
	return *globalConfig.Enabled
}

func init() {
	SetupGlobalLogger(nil)
}
