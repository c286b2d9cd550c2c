package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMu  sync.Mutex
	sink   *dailyFile
	logger = newConsole(os.Stderr)
)

// The console only carries warnings and errors: stdout and most of stderr
// belong to the command nyado runs.
func consoleWriter(w io.Writer) zerolog.LevelWriter {
	return &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: w, TimeFormat: "2006/01/02 15:04:05"}},
		Level:  zerolog.WarnLevel,
	}
}

func newConsole(w io.Writer) zerolog.Logger {
	return zerolog.New(consoleWriter(w)).With().Timestamp().Logger()
}

// Init enables the audit file under logDir at the given level. An empty
// logDir keeps console-only logging.
func Init(logDir string, level zerolog.Level) error {
	logMu.Lock()
	defer logMu.Unlock()

	if sink != nil {
		sink.close()
		sink = nil
	}
	writers := []io.Writer{consoleWriter(os.Stderr)}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return err
		}
		f := &dailyFile{dir: logDir}
		if err := f.rotate(time.Now()); err != nil {
			return err
		}
		sink = f
		writers = append(writers, f)
	}
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Str("app", "nyado").Logger()
	return nil
}

// SetOutput replaces every sink with w. Used by tests.
func SetOutput(w io.Writer, level zerolog.Level) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if sink != nil {
		sink.close()
		sink = nil
	}
	logger = newConsole(os.Stderr)
}

// SetSession tags every following line with the invocation's session id.
func SetSession(session string) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = logger.With().Str("session", session).Logger()
}

func Info(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Error(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

// Audit starts a structured record for a policy or launch decision. The
// caller adds fields and finishes it with Msg.
func Audit() *zerolog.Event {
	return logger.Info().Str("kind", "audit")
}

// dailyFile is an io.Writer that starts a new <dir>/YYYY-MM-DD.log file
// whenever the day changes.
type dailyFile struct {
	mu  sync.Mutex
	dir string
	day string
	f   *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(time.Now()); err != nil {
		return 0, err
	}
	return d.f.Write(p)
}

func (d *dailyFile) rotate(t time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotateLocked(t)
}

func (d *dailyFile) rotateLocked(t time.Time) error {
	day := t.Format("2006-01-02")
	if d.f != nil && d.day == day {
		return nil
	}
	if d.f != nil {
		_ = d.f.Close()
		d.f = nil
	}
	path := filepath.Join(d.dir, day+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.f = f
	d.day = day
	return nil
}

func (d *dailyFile) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f != nil {
		_ = d.f.Close()
		d.f = nil
	}
}
