// Package logger configures the process-wide zerolog logger. Output
// always goes to stdout; an optional log file is appended alongside.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds the root logger and installs it as the zerolog global.
func Init(logFilePath, level string) zerolog.Logger {
	writers := []io.Writer{os.Stdout}

	if logFilePath != "" {
		file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
		} else {
			writers = append(writers, file)
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(lvl)
	log.Logger = l
	return l
}
