package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Chiaro ✨ ",
				})
				l.SetLevel(log.DebugLevel)
				if raw := os.Getenv("CHIARO_LOG_LEVEL"); raw != "" {
					if level, err := log.ParseLevel(raw); err == nil {
						l.SetLevel(level)
					}
				}
				singleton = &logger{l}
			})
	}
	return singleton
}

// SetLogOutput redirects the log. The terminal presenter owns the screen
// while it runs, so the engine moves logging into a sidecar file for the
// duration and restores stderr on shutdown.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
