package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"chatlog/pkg/logger"
)

// Abort logs a fatal startup error, writes a crash dump into crashDir and
// exits with status 2 after delay.
func Abort(contextMsg string, err error, crashDir string, delay time.Duration) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", contextMsg, err)
	dumpPath, derr := WriteCrashDump(crashDir, contextMsg, err)
	if derr != nil {
		logger.Error("crash_dump_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "FAILED TO WRITE CRASH DUMP: %v\n", derr)
	} else {
		logger.Error("startup_fatal_crashdump", "path", dumpPath)
		fmt.Fprintf(os.Stderr, "CRASH DUMP WRITTEN: %s\n", dumpPath)
	}
	logger.Sync()
	if delay > 0 {
		time.Sleep(delay)
	}
	os.Exit(2)
}

// WriteCrashDump writes reason, err, the environment and every goroutine
// stack to crash-<unixnano>.log under crashDir and returns its path.
func WriteCrashDump(crashDir, reason string, err error) (string, error) {
	if crashDir == "" {
		crashDir = "./crash"
	}
	if e := os.MkdirAll(crashDir, 0o700); e != nil {
		return "", fmt.Errorf("failed to create crash dir: %w", e)
	}

	now := time.Now()
	dumpPath := filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", now.UnixNano()))

	f, ferr := os.CreateTemp(crashDir, ".crash-*.tmp")
	if ferr != nil {
		return "", fmt.Errorf("failed to create temp crash file: %w", ferr)
	}
	tmpName := f.Name()
	defer func() { _ = os.Remove(tmpName) }()

	fmt.Fprintf(f, "time: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "pid: %d\n", os.Getpid())
	fmt.Fprintf(f, "reason: %s\n", reason)
	fmt.Fprintf(f, "error: %v\n", err)
	fmt.Fprintf(f, "\n--- environ ---\n")
	for _, e := range os.Environ() {
		fmt.Fprintln(f, e)
	}
	fmt.Fprintf(f, "\n--- goroutine stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	_, _ = f.Write(buf[:n])
	_ = f.Sync()
	if cerr := f.Close(); cerr != nil {
		return "", cerr
	}

	if err := os.Rename(tmpName, dumpPath); err != nil {
		return "", fmt.Errorf("failed to move crash dump into place: %w", err)
	}
	_ = os.Chmod(dumpPath, 0o600)
	return dumpPath, nil
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// SIGPIPE dumps goroutine stacks to the log before cancelling.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)
	go func() {
		defer signal.Stop(sigc)
		select {
		case s := <-sigc:
			if s == syscall.SIGPIPE {
				logger.Info("signal_received", "signal", s.String(), "msg", "SIGPIPE - dumping goroutine stacks")
				buf := make([]byte, 1<<20)
				n := runtime.Stack(buf, true)
				logger.Info("goroutine_stack_dump", "dump", string(buf[:n]))
			} else {
				logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
