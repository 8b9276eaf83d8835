package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
)

// DefaultLockPrefix matches the SingletonLock, SingletonSocket and
// SingletonCookie entries Chromium leaves behind in a profile directory.
const DefaultLockPrefix = "Singleton"

// Sweeper removes stale browser profile locks before a new browser launch.
type Sweeper struct {
	fs       afero.Fs
	prefixes []string
	logger   *zap.SugaredLogger
}

func NewSweeper(cfg *config.Config, logger *zap.SugaredLogger) *Sweeper {
	prefix := DefaultLockPrefix
	if cfg != nil && strings.TrimSpace(cfg.Session.LockPrefix) != "" {
		prefix = strings.TrimSpace(cfg.Session.LockPrefix)
	}
	return NewSweeperFs(afero.NewOsFs(), logger, prefix)
}

func NewSweeperFs(fs afero.Fs, logger *zap.SugaredLogger, prefixes ...string) *Sweeper {
	if len(prefixes) == 0 {
		prefixes = []string{DefaultLockPrefix}
	}
	return &Sweeper{fs: fs, prefixes: prefixes, logger: logger}
}

// Sweep deletes every non-directory entry under root whose name starts with
// a lock prefix. Failures are logged and skipped; a missing root is a no-op.
func (s *Sweeper) Sweep(root string) {
	removed := 0
	s.walkLocks(root, func(path string) {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Warnw("session_lock_remove_failed", "path", path, "err", err)
			return
		}
		removed++
		s.logger.Infow("session_lock_removed", "path", path)
	})
	s.logger.Infow("session_sweep_done", "root", root, "removed", removed)
}

// Find lists the lock entries Sweep would remove.
func (s *Sweeper) Find(root string) []string {
	var out []string
	s.walkLocks(root, func(path string) { out = append(out, path) })
	return out
}

func (s *Sweeper) walkLocks(root string, fn func(path string)) {
	info, err := lstat(s.fs, root)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnw("session_sweep_root_unreadable", "root", root, "err", err)
		}
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		root = s.resolveRoot(root)
	}

	err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Warnw("session_sweep_walk_failed", "path", path, "err", err)
			return nil
		}
		if info.IsDir() || !s.isLock(info.Name()) {
			return nil
		}
		fn(path)
		return nil
	})
	if err != nil {
		s.logger.Warnw("session_sweep_aborted", "root", root, "err", err)
	}
}

// resolveRoot follows a symlinked session root to its directory. Entries
// below the root are still visited with Lstat so dangling lock links are
// removed rather than followed.
func (s *Sweeper) resolveRoot(root string) string {
	target, err := s.fs.Stat(root)
	if err != nil || !target.IsDir() {
		return root
	}

	cur := root
	for range maxRootLinks {
		r, ok := s.fs.(afero.LinkReader)
		if !ok {
			break
		}
		info, err := lstat(s.fs, cur)
		if err != nil {
			break
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return cur
		}
		dest, err := r.ReadlinkIfPossible(cur)
		if err != nil {
			break
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(cur), dest)
		}
		cur = dest
	}

	s.logger.Warnw("session_sweep_root_unresolved", "root", root)
	return root
}

const maxRootLinks = 40

func (s *Sweeper) isLock(name string) bool {
	for _, p := range s.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}
