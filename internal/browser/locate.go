package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"whatsapp-notifier/config"
)

type Source string

const (
	SourceEnv       Source = "env"
	SourceWellKnown Source = "well_known"
	SourcePath      Source = "path"
	SourceNixStore  Source = "nix_store"
)

// EnvOverrides are consulted first, in order.
var EnvOverrides = []string{"PUPPETEER_EXECUTABLE_PATH", "CHROME_BIN"}

var WellKnownPaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

var PathNames = []string{"chromium", "chromium-browser", "google-chrome-stable", "google-chrome"}

const NixStorePattern = "/nix/store/*-chromium-*/bin/chromium"

type Location struct {
	Path   string
	Source Source
	// Detail names the env var, PATH entry or store glob that matched.
	Detail string
}

// Locator finds a browser binary. The zero value is not usable; build one
// with NewLocator.
type Locator struct {
	getenv   func(string) string
	stat     func(string) (os.FileInfo, error)
	lookPath func(string) (string, error)
	glob     func(string) ([]string, error)

	wellKnown  []string
	pathNames  []string
	nixPattern string

	logger *zap.SugaredLogger
}

func NewLocator(cfg *config.Config, logger *zap.SugaredLogger) *Locator {
	l := &Locator{
		getenv:     os.Getenv,
		stat:       os.Stat,
		lookPath:   exec.LookPath,
		glob:       filepath.Glob,
		wellKnown:  WellKnownPaths,
		pathNames:  PathNames,
		nixPattern: NixStorePattern,
		logger:     logger,
	}
	if cfg != nil {
		// Config values win over the live environment so viper-provided
		// overrides behave the same as exported variables.
		overrides := map[string]string{
			"PUPPETEER_EXECUTABLE_PATH": cfg.Chrome.PuppeteerExecutablePath,
			"CHROME_BIN":                cfg.Chrome.ChromeBin,
		}
		l.getenv = func(key string) string {
			if v := strings.TrimSpace(overrides[key]); v != "" {
				return v
			}
			return os.Getenv(key)
		}
	}
	return l
}

// Locate returns the first usable binary in priority order. The boolean is
// false when nothing was found; callers then fall back to the automation
// client's bundled browser.
func (l *Locator) Locate() (Location, bool) {
	for _, key := range EnvOverrides {
		p := strings.TrimSpace(l.getenv(key))
		if p == "" {
			continue
		}
		if l.usable(p) {
			return l.found(Location{Path: p, Source: SourceEnv, Detail: key})
		}
		l.logger.Warnw("browser_env_override_unusable", "env", key, "path", p)
	}

	for _, p := range l.wellKnown {
		if l.usable(p) {
			return l.found(Location{Path: p, Source: SourceWellKnown, Detail: p})
		}
	}

	for _, name := range l.pathNames {
		if p, err := l.lookPath(name); err == nil && l.usable(p) {
			return l.found(Location{Path: p, Source: SourcePath, Detail: name})
		}
	}

	if l.nixPattern != "" {
		matches, err := l.glob(l.nixPattern)
		if err != nil {
			l.logger.Warnw("browser_nix_store_glob_failed", "pattern", l.nixPattern, "err", err)
		}
		for _, p := range matches {
			if l.usable(p) {
				return l.found(Location{Path: p, Source: SourceNixStore, Detail: l.nixPattern})
			}
		}
	}

	l.logger.Infow("browser_executable_not_found")
	return Location{}, false
}

func (l *Locator) found(loc Location) (Location, bool) {
	l.logger.Infow("browser_executable_found",
		"path", loc.Path,
		"source", loc.Source,
		"detail", loc.Detail,
	)
	return loc, true
}

func (l *Locator) usable(path string) bool {
	info, err := l.stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
