package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidAccount is returned for account ids that would escape the base dir.
var ErrInvalidAccount = errors.New("invalid account id")

const appDirName = "chatlog"

// DefaultBaseDir is the process-standard state directory used when no base
// dir is configured.
func DefaultBaseDir() string {
	if x := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); x != "" {
		return filepath.Join(x, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "state", appDirName)
	}
	return "." + appDirName
}

// ResolveRoot returns the storage root for base and an optional account
// namespace. Accounts live under <base>/accounts/<account>.
func ResolveRoot(base, account string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseDir()
	}
	base = filepath.Clean(base)
	account = strings.TrimSpace(account)
	if account == "" {
		return base, nil
	}
	if account == "." || account == ".." || strings.ContainsAny(account, `/\`) || strings.Contains(account, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}
	return filepath.Join(base, "accounts", account), nil
}

// EnsureStateDirs creates the runtime layout under root. Every directory must
// not be a symlink and must be writable.
func EnsureStateDirs(p Paths) error {
	for _, dir := range []string{p.Root, p.Chats, p.Audit, p.Retention} {
		if fi, err := os.Lstat(dir); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", dir)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", dir)
			}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", dir, err)
		}
		tmp, err := os.CreateTemp(dir, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", dir, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return nil
}

// Init resolves the root and ensures its layout exists.
func Init(base, account string) (Paths, error) {
	root, err := ResolveRoot(base, account)
	if err != nil {
		return Paths{}, err
	}
	p := PathsFor(root)
	if err := EnsureStateDirs(p); err != nil {
		return Paths{}, err
	}
	return p, nil
}
