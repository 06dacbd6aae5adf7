package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chatlog/pkg/logger"
)

const leaseFileName = "retention.lock"

var errNotOwner = errors.New("lease not owned")

// fileLease is a cross-process lock on a file holding the owner and expiry.
// Creation uses a hard link so only one process wins an empty slot; an
// expired lease may be taken over by rename.
type fileLease struct {
	path string
	now  func() time.Time
}

type leaseFile struct {
	Owner   string    `json:"owner"`
	Expires time.Time `json:"expires"`
}

func newFileLease(dir string, now func() time.Time) *fileLease {
	return &fileLease{path: filepath.Join(dir, leaseFileName), now: now}
}

func (l *fileLease) write(tmp string, lf leaseFile) error {
	b, err := json.Marshal(lf)
	if err != nil {
		return err
	}
	return os.WriteFile(tmp, b, 0o600)
}

func (l *fileLease) read() (leaseFile, error) {
	var lf leaseFile
	data, err := os.ReadFile(l.path)
	if err != nil {
		return lf, err
	}
	err = json.Unmarshal(data, &lf)
	return lf, err
}

// Acquire takes the lease for owner for ttl. It returns false when another
// owner holds an unexpired lease.
func (l *fileLease) Acquire(owner string, ttl time.Duration) (bool, error) {
	now := l.now()
	tmp := l.path + "." + owner + ".tmp"
	if err := l.write(tmp, leaseFile{Owner: owner, Expires: now.Add(ttl)}); err != nil {
		return false, fmt.Errorf("write lease: %w", err)
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, l.path); err == nil {
		logger.Debug("lease_acquired", "path", l.path, "owner", owner)
		return true, nil
	}

	existing, err := l.read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// unreadable lease files are treated as expired
		logger.Warn("lease_unreadable", "path", l.path, "error", err)
	} else if err == nil && existing.Expires.After(now) {
		logger.Debug("lease_currently_held", "path", l.path, "owner", existing.Owner)
		return false, nil
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return false, fmt.Errorf("replace expired lease: %w", err)
	}
	logger.Info("lease_acquired_replaced", "path", l.path, "owner", owner, "previous_owner", existing.Owner)
	return true, nil
}

// Renew extends the lease when owner still holds it.
func (l *fileLease) Renew(owner string, ttl time.Duration) error {
	existing, err := l.read()
	if err != nil {
		return err
	}
	if existing.Owner != owner {
		return errNotOwner
	}
	tmp := l.path + "." + owner + ".tmp"
	if err := l.write(tmp, leaseFile{Owner: owner, Expires: l.now().Add(ttl)}); err != nil {
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Release removes the lease when owner still holds it.
func (l *fileLease) Release(owner string) error {
	existing, err := l.read()
	if err != nil {
		return err
	}
	if existing.Owner != owner {
		return errNotOwner
	}
	return os.Remove(l.path)
}
