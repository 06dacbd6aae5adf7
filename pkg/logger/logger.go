package logger

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var Log *slog.Logger

// Audit is an optional dedicated audit logger. When nil, audit events go
// through the main logger instead (see AuditInfo).
var Audit *slog.Logger

type asyncWriter struct {
	ch chan []byte
}

func (a *asyncWriter) Write(p []byte) (n int, err error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case a.ch <- cp:
	default:
		// drop if queue full to avoid blocking writers
	}
	return len(p), nil
}

var (
	logCh     chan []byte
	logStopCh chan struct{}
	logWG     sync.WaitGroup
	auditFile *os.File
)

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger with an async buffered text handler.
// An empty level falls back to CHATLOG_LOG_LEVEL. CHATLOG_LOG_SINK=file:<path>
// sends output to a file instead of stdout.
func Init(level string) {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("CHATLOG_LOG_LEVEL")
	}
	sink := os.Getenv("CHATLOG_LOG_SINK")

	logCh = make(chan []byte, 10000)
	logStopCh = make(chan struct{})
	Log = slog.New(slog.NewTextHandler(&asyncWriter{ch: logCh}, &slog.HandlerOptions{Level: ParseLevel(level)}))

	logWG.Add(1)
	go drain(sink, logCh, logStopCh)
}

// InitWriter installs a synchronous logger writing to w. Used by the CLI and tests.
func InitWriter(w io.Writer, level string) {
	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func drain(sink string, ch <-chan []byte, stop <-chan struct{}) {
	defer logWG.Done()
	var f *os.File
	out := io.Writer(os.Stdout)
	if path, ok := strings.CutPrefix(sink, "file:"); ok {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		} else {
			out = f
		}
	}
	buf := bufio.NewWriterSize(out, 8192)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case b := <-ch:
			buf.Write(b)
		case <-ticker.C:
			buf.Flush()
		case <-stop:
			// drain what is already queued
			for {
				select {
				case b := <-ch:
					buf.Write(b)
					continue
				default:
				}
				break
			}
			buf.Flush()
			if f != nil {
				f.Close()
			}
			return
		}
	}
}

// AttachAuditFileSink points Audit at <auditDir>/audit.log, rotating the
// file once it passes 10MB.
func AttachAuditFileSink(auditDir string) error {
	if auditDir == "" {
		return fmt.Errorf("empty audit dir")
	}
	if fi, err := os.Lstat(auditDir); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("audit path is a symlink: %s", auditDir)
		}
		if !fi.IsDir() {
			return fmt.Errorf("audit path exists and is not a directory: %s", auditDir)
		}
	}
	if err := os.MkdirAll(auditDir, 0o700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	fname := filepath.Join(auditDir, "audit.log")
	if fi, err := os.Stat(fname); err == nil {
		const maxSize = 10 * 1024 * 1024
		if fi.Size() > maxSize {
			bak := fname + "." + fi.ModTime().UTC().Format("20060102T150405Z")
			_ = os.Rename(fname, bak)
		}
	}
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	auditFile = f
	Audit = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	Audit.Info("audit_sink_attached", "path", fname)
	return nil
}

// AuditInfo emits an audit event, falling back to the main logger.
func AuditInfo(msg string, args ...any) {
	if Audit != nil {
		Audit.Info(msg, args...)
		return
	}
	Info(msg, args...)
}

// Sync flushes buffered logs and closes the audit sink.
func Sync() {
	if logStopCh != nil {
		close(logStopCh)
		logWG.Wait()
		logStopCh = nil
	}
	if auditFile != nil {
		_ = auditFile.Close()
		auditFile = nil
		Audit = nil
	}
}

func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Error(msg, args...)
}

// LogConfigSummary prints a readable block of startup settings to stdout.
func LogConfigSummary(title string, items []string) {
	if len(items) == 0 {
		return
	}
	header := "== " + strings.ToUpper(strings.ReplaceAll(title, "_", " ")) + " "
	const width = 60
	if len(header) < width {
		header += strings.Repeat("=", width-len(header))
	}
	fmt.Fprintln(os.Stdout, header)
	for _, it := range items {
		fmt.Fprintln(os.Stdout, "- "+it)
	}
	fmt.Fprintln(os.Stdout)
}
