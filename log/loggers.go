package log

import "fmt"

func (sl *SubLogger) stage(lvl level, data string) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled() || lvl < sl.level {
		return
	}
	line := now() + spacer + lvl.header() + spacer + sl.name + spacer + data + "\n"
	for _, w := range writers {
		_, _ = w.Write([]byte(line))
	}
}

func (sl *SubLogger) stagef(lvl level, format string, v ...interface{}) {
	sl.stage(lvl, fmt.Sprintf(format, v...))
}

func (sl *SubLogger) stageln(lvl level, v ...interface{}) {
	sl.stage(lvl, fmt.Sprintln(v...))
}

// Info logs data at info level tagged with the sublogger's subsystem name.
func Info(sl *SubLogger, data string) { sl.stage(levelInfo, data) }

// Infoln logs v at info level.
func Infoln(sl *SubLogger, v ...interface{}) { sl.stageln(levelInfo, v...) }

// Infof logs a formatted message at info level.
func Infof(sl *SubLogger, format string, v ...interface{}) { sl.stagef(levelInfo, format, v...) }

// Debug logs data at debug level.
func Debug(sl *SubLogger, data string) { sl.stage(levelDebug, data) }

// Debugln logs v at debug level.
func Debugln(sl *SubLogger, v ...interface{}) { sl.stageln(levelDebug, v...) }

// Debugf logs a formatted message at debug level.
func Debugf(sl *SubLogger, format string, v ...interface{}) { sl.stagef(levelDebug, format, v...) }

// Warn logs data at warn level.
func Warn(sl *SubLogger, data string) { sl.stage(levelWarn, data) }

// Warnln logs v at warn level.
func Warnln(sl *SubLogger, v ...interface{}) { sl.stageln(levelWarn, v...) }

// Warnf logs a formatted message at warn level.
func Warnf(sl *SubLogger, format string, v ...interface{}) { sl.stagef(levelWarn, format, v...) }

// Errorln logs v at error level.
func Errorln(sl *SubLogger, v ...interface{}) { sl.stageln(levelError, v...) }

// Errorf logs a formatted message at error level.
func Errorf(sl *SubLogger, format string, v ...interface{}) { sl.stagef(levelError, format, v...) }
