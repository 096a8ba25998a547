// Package logging wires up the shared zerolog logger every cmd/ entry point
// uses: console-pretty output to stderr and, when a log path is given,
// structured JSON lines to a per-job log file as well, with a
// run-correlation ID on every entry.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New builds a logger writing to both stderr (human-readable) and logPath
// (JSON lines, append mode), stamped with a fresh run ID under the "run_id"
// field. An empty logPath disables the file sink.
func New(job, logPath string) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var writers []io.Writer
	writers = append(writers, console)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		writers = append(writers, f)
	}

	multi := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multi).With().
		Timestamp().
		Str("job", job).
		Str("run_id", uuid.NewString()).
		Logger()

	return logger, nil
}
